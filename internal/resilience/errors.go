// Package resilience provides bounded retries and a cooldown circuit breaker
// for calls to the hosted backend.
package resilience

import (
	"errors"
	"fmt"
	"net/http"
)

// GatewayTimeoutCode PostgREST error code for a timed-out pool acquisition,
// reported by the hosted backend in place of a 504.
const GatewayTimeoutCode = "PGRST003"

var (
	ErrCircuitOpen        = errors.New("backend temporarily disabled after repeated failures")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// StatusError a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

// IsTransient reports whether err is retriable: HTTP 502/503/504 or the
// gateway-timeout code.
func IsTransient(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return se.Code == GatewayTimeoutCode
}

// LocalizedMessage user-facing Thai message for backend failures; empty when
// err is not a backend availability problem.
func LocalizedMessage(err error) string {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return "ระบบหยุดการเชื่อมต่อชั่วคราวเนื่องจากเซิร์ฟเวอร์ขัดข้อง กรุณาลองใหม่ภายหลัง"
	case errors.Is(err, ErrBackendUnavailable):
		return "ไม่สามารถเชื่อมต่อเซิร์ฟเวอร์ได้ในขณะนี้ กรุณาลองใหม่อีกครั้ง"
	}
	return ""
}
