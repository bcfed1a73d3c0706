package handlers

import (
	"context"
	"net/http"
	"time"

	"valvewatch"
	"valvewatch/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpEmail    string
	lastSignUpPassword string
	lastGenEmail       string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(email, password string) (int, error) {
	m.lastSignUpEmail = email
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(email, password string) (string, error) {
	m.lastGenEmail = email
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockDashboard struct {
	view       valvewatch.DashboardView
	hasView    bool
	devices    []string
	current    string
	selectErr  error
	lastSelect string
	clockStr   string
}

func (m *mockDashboard) View(ctx context.Context) (valvewatch.DashboardView, bool) {
	return m.view, m.hasView
}
func (m *mockDashboard) Devices(ctx context.Context) ([]string, string) {
	return m.devices, m.current
}
func (m *mockDashboard) SelectDevice(ctx context.Context, id string) error {
	m.lastSelect = id
	if m.selectErr != nil {
		return m.selectErr
	}
	m.current = id
	return nil
}
func (m *mockDashboard) Clock(now time.Time) string { return m.clockStr }

type mockSource struct {
	attachBase string
	attachErr  error
	detachErr  error
	lastAttach string
	attached   bool
	base       string

	attachCalls int
	detachCalls int
}

func (m *mockSource) Attach(ctx context.Context, rawURL string) (string, error) {
	m.attachCalls++
	m.lastAttach = rawURL
	if m.attachErr != nil {
		return "", m.attachErr
	}
	m.attached = true
	m.base = m.attachBase
	return m.attachBase, nil
}
func (m *mockSource) Detach(ctx context.Context) error {
	m.detachCalls++
	if m.detachErr != nil {
		return m.detachErr
	}
	m.attached = false
	m.base = ""
	return nil
}
func (m *mockSource) Attached() (string, bool) { return m.base, m.attached }

type mockSourceLog struct {
	resp     []valvewatch.SourceEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockSourceLog) List(ctx context.Context, f service.LogFilter) ([]valvewatch.SourceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
