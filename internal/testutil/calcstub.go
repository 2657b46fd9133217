package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// CalcStub is an in-process stand-in for the remote calculation service.
// Zero-value fields mean "succeed": CalculateStatus 0 answers 200 with BMR.
type CalcStub struct {
	Server *httptest.Server

	mu              sync.Mutex
	BMR             float64
	CalculateStatus int
	CalculateBody   string
	AccessCount     int64
	CounterStatus   int
	CounterBody     string
	Payloads        []map[string]any
	counterCalls    int

	// CounterGate, when set, holds every /access-count response until it is
	// closed.
	CounterGate chan struct{}
}

// NewCalcStub starts a stub serving /calculate and /access-count. It is
// closed automatically when the test ends.
func NewCalcStub(t testing.TB) *CalcStub {
	t.Helper()

	s := &CalcStub{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /calculate", s.calculate)
	mux.HandleFunc("GET /access-count", s.accessCount)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Server.Close)

	return s
}

func (s *CalcStub) URL() string {
	return s.Server.URL
}

// Set runs fn with the stub locked so handlers never observe partial updates.
func (s *CalcStub) Set(fn func(s *CalcStub)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *CalcStub) CalculateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Payloads)
}

func (s *CalcStub) LastPayload() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Payloads) == 0 {
		return nil
	}
	return s.Payloads[len(s.Payloads)-1]
}

func (s *CalcStub) CounterCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counterCalls
}

func (s *CalcStub) calculate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	s.Payloads = append(s.Payloads, payload)

	if s.CalculateStatus != 0 && s.CalculateStatus != http.StatusOK {
		http.Error(w, "stub failure", s.CalculateStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if s.CalculateBody != "" {
		_, _ = w.Write([]byte(s.CalculateBody))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]float64{"bmr": s.BMR})
}

func (s *CalcStub) accessCount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	gate := s.CounterGate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counterCalls++

	if s.CounterStatus != 0 && s.CounterStatus != http.StatusOK {
		http.Error(w, "stub failure", s.CounterStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if s.CounterBody != "" {
		_, _ = w.Write([]byte(s.CounterBody))
		return
	}
	_ = json.NewEncoder(w).Encode(s.AccessCount)
}
