package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Section one of the three scored assessment dimensions.
type Section int

const (
	SectionQuantitative Section = iota + 1
	SectionQualitative
	SectionImpact
)

// sectionInfo fixed table: section -> wire name.
var sectionInfo = map[Section]struct {
	name string
}{
	SectionQuantitative: {"quantitative"},
	SectionQualitative:  {"qualitative"},
	SectionImpact:       {"impact"},
}

// Sections returns all sections in display order.
func Sections() []Section {
	return []Section{SectionQuantitative, SectionQualitative, SectionImpact}
}

// ParseSection maps the wire name ("quantitative", "qualitative", "impact").
func ParseSection(s string) (Section, error) {
	for sec, info := range sectionInfo {
		if info.name == s {
			return sec, nil
		}
	}
	return 0, fmt.Errorf("invalid section: %q", s)
}

func (s Section) String() string {
	if info, ok := sectionInfo[s]; ok {
		return info.name
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// Valid reports whether s is one of the three sections.
func (s Section) Valid() bool {
	_, ok := sectionInfo[s]
	return ok
}

func (s Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Section) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	sec, err := ParseSection(name)
	if err != nil {
		return err
	}
	*s = sec
	return nil
}

// SectionStamp approval stamp of one section. The zero value means "not
// approved"; By and At are only ever set or cleared together.
type SectionStamp struct {
	By string
	At time.Time
}

// NewSectionStamp stamps by at the given time. An empty reviewer yields the zero stamp.
func NewSectionStamp(by string, at time.Time) SectionStamp {
	if by == "" || at.IsZero() {
		return SectionStamp{}
	}
	return SectionStamp{By: by, At: at.UTC()}
}

// Approved both fields are present.
func (s SectionStamp) Approved() bool {
	return s.By != "" && !s.At.IsZero()
}

type sectionStampJSON struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

func (s SectionStamp) MarshalJSON() ([]byte, error) {
	if !s.Approved() {
		return []byte("null"), nil
	}
	return json.Marshal(sectionStampJSON{By: s.By, At: s.At})
}

func (s *SectionStamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = SectionStamp{}
		return nil
	}
	var v sectionStampJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = NewSectionStamp(v.By, v.At)
	return nil
}
