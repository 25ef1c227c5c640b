// Package mockportal serves an imitation of the portal login pages, with the
// same field names, markers and redirects that the login flow relies on.
package mockportal

import (
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"titechportal/internal/components/assert"
	"titechportal/internal/components/chrono"
	"titechportal/internal/components/telemetry"
	"titechportal/pkg/portal"

	"github.com/google/uuid"
	"github.com/mazen160/go-random"
)

const (
	report_session_new    = "session.new"
	report_render         = "render"
	report_token          = "token"
	report_reject         = "reject"
	report_authenticated  = "authenticated"
	report_unknown_option = "unknown-option"
)

const (
	SessionCookie = "MockPortalSession"

	loginPath        = "/GetAccess/Login"
	resourceListPath = "/GetAccess/ResourceList"
	logoutPath       = "/GetAccess/Logout"
	passwordPagePath = loginPath + "?Template=userpass_key&AUTHMETHOD=UserPassword"
)

// DefaultAccount is the account the mock accepts unless Options.Account is set.
var DefaultAccount = portal.Account{
	Username: "00B00000",
	Password: "passw0rd&",
	Matrix:   uniformMatrix("A"),
}

// DefaultChallenge is the set of cells the mock always asks for.
var DefaultChallenge = []portal.Matrix{portal.D2, portal.E2, portal.I6}

// uniformMatrix maps every cell to the same secret.
func uniformMatrix(secret string) map[portal.Matrix]string {
	out := map[portal.Matrix]string{}
	for _, m := range portal.AllMatrices() {
		out[m] = secret
	}
	return out
}

type Options struct {
	// Account defaults to DefaultAccount.
	Account portal.Account
	// Challenge defaults to DefaultChallenge.
	Challenge []portal.Matrix
	// SkipOtp goes straight from the password page to the matrix page.
	SkipOtp bool
	// TotpVariant shows the token authentication page instead of the otp
	// method selection.
	TotpVariant bool
	// NoGridOption leaves matrix authentication out of the otp methods.
	NoGridOption bool
}

type stage int

const (
	stagePassword stage = iota
	stageOtp
	stageMatrix
	stageAuthenticated
)

type session struct {
	stage stage
	csrf  string
}

// Server is an http.Handler, sessions are kept in memory for the lifetime
// of the Server.
type Server struct {
	opts Options
	tel  telemetry.API
	time chrono.TimeAPI
	mux  *http.ServeMux

	mutex    sync.Mutex
	sessions map[string]*session
}

func NewServer(opts Options, tel telemetry.API, clock chrono.TimeAPI) *Server {
	assert.NotNil(tel)
	assert.NotNil(clock)

	if opts.Account.Username == "" {
		opts.Account = DefaultAccount
	}
	if len(opts.Challenge) == 0 {
		opts.Challenge = DefaultChallenge
	}

	s := &Server{
		opts:     opts,
		tel:      telemetry.NewScopedAPI("mockportal", tel),
		time:     clock,
		mux:      http.NewServeMux(),
		sessions: map[string]*session{},
	}
	s.mux.HandleFunc("GET "+loginPath, s.handleLoginPage)
	s.mux.HandleFunc("POST "+loginPath, s.handleLoginSubmit)
	s.mux.HandleFunc("GET "+resourceListPath, s.handleResourceList)
	s.mux.HandleFunc("GET "+logoutPath, s.handleLogout)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Reset forgets every session, as if the portal had restarted.
func (s *Server) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessions = map[string]*session{}
}

func newToken() (string, error) {
	return random.String(32)
}

// session returns the session of the request, starting a new one if the
// request carries no known cookie.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		sess, ok := s.sessions[cookie.Value]
		if ok {
			return sess
		}
	}

	id := uuid.NewString()
	sess := &session{stage: stagePassword}
	s.sessions[id] = sess
	s.tel.ReportDebug(report_session_new)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
	return sess
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	err := tmpl.Execute(w, data)
	if err != nil {
		s.tel.ReportBroken(report_render, tmpl.Name(), err)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.tel.ReportBroken(report_token, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// newCommon issues a fresh CSRF token for the next form of the session. The
// caller must hold the mutex.
func (s *Server) newCommon(sess *session, templateName, authMethod, errMsg string) (common, error) {
	token, err := newToken()
	if err != nil {
		return common{}, err
	}
	sess.csrf = token
	return common{
		Template:    templateName,
		AuthMethod:  authMethod,
		PageGenTime: s.time.Now().Unix(),
		CSRFToken:   token,
		Error:       errMsg,
	}, nil
}

func (s *Server) renderPassword(w http.ResponseWriter, sess *session, errMsg string) {
	sess.stage = stagePassword
	c, err := s.newCommon(sess, "userpass_key", "UserPassword", errMsg)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.render(w, passwordTemplate, passwordPage{common: c})
}

func (s *Server) renderOtp(w http.ResponseWriter, sess *session, errMsg string) {
	sess.stage = stageOtp
	c, err := s.newCommon(sess, "idg_key", "IG", errMsg)
	if err != nil {
		s.fail(w, err)
		return
	}
	options := []string{"OTPAuthOption"}
	if !s.opts.NoGridOption {
		options = append(options, portal.OptionGridAuth)
	}
	s.render(w, otpTemplate, otpPage{
		common:  c,
		Totp:    s.opts.TotpVariant,
		Options: options,
	})
}

// matrixField is the name of the i-th answer field, the portal numbers its
// fields from message3.
func matrixField(i int) string {
	return fmt.Sprintf("message%d", i+3)
}

func (s *Server) renderMatrix(w http.ResponseWriter, sess *session) {
	sess.stage = stageMatrix
	c, err := s.newCommon(sess, "idg_key", "IG", "")
	if err != nil {
		s.fail(w, err)
		return
	}
	cells := make([]matrixCell, len(s.opts.Challenge))
	for i, m := range s.opts.Challenge {
		cells[i] = matrixCell{
			Label: fmt.Sprintf("[%c,%d]", m.Column(), m.Row()),
			Field: matrixField(i),
		}
	}
	s.render(w, matrixTemplate, matrixPage{
		common:     c,
		Cells:      cells,
		SelectName: matrixField(len(cells)),
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if sess.stage == stageAuthenticated {
		http.Redirect(w, r, resourceListPath, http.StatusFound)
		return
	}
	s.renderPassword(w, sess, "")
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if sess.stage == stageAuthenticated {
		http.Redirect(w, r, resourceListPath, http.StatusFound)
		return
	}

	if sess.csrf == "" || r.PostForm.Get("CSRFFormToken") != sess.csrf {
		s.tel.ReportWarning(report_reject, "reason", "csrf token mismatch")
		s.render(w, failureTemplate, "The form has expired.")
		sess.stage = stagePassword
		sess.csrf = ""
		return
	}

	switch sess.stage {
	case stagePassword:
		s.submitPassword(w, r, sess)
	case stageOtp:
		s.submitOtp(w, r, sess)
	case stageMatrix:
		s.submitMatrix(w, r, sess)
	}
}

func (s *Server) submitPassword(w http.ResponseWriter, r *http.Request, sess *session) {
	username := r.PostForm.Get("usr_name")
	password := r.PostForm.Get("usr_password")
	if username != s.opts.Account.Username || password != s.opts.Account.Password {
		s.tel.ReportWarning(report_reject, "reason", "bad credentials", "username", username)
		s.renderPassword(w, sess, "Authentication failed.")
		return
	}
	if s.opts.SkipOtp {
		s.renderMatrix(w, sess)
		return
	}
	s.renderOtp(w, sess, "")
}

func (s *Server) submitOtp(w http.ResponseWriter, r *http.Request, sess *session) {
	method := r.PostForm.Get("message3")
	if method != portal.OptionGridAuth || s.opts.NoGridOption {
		s.tel.ReportWarning(report_unknown_option, "method", method)
		s.renderOtp(w, sess, "Please select an authentication method.")
		return
	}
	s.renderMatrix(w, sess)
}

func (s *Server) submitMatrix(w http.ResponseWriter, r *http.Request, sess *session) {
	for i, m := range s.opts.Challenge {
		expected, ok := s.opts.Account.Matrix[m]
		if !ok || r.PostForm.Get(matrixField(i)) != expected {
			s.tel.ReportWarning(report_reject, "reason", "bad matrix answer", "cell", m.String())
			sess.stage = stagePassword
			sess.csrf = ""
			s.render(w, failureTemplate, "The matrix code is incorrect.")
			return
		}
	}

	sess.stage = stageAuthenticated
	sess.csrf = ""
	s.tel.ReportDebug(report_authenticated, "username", s.opts.Account.Username)
	http.Redirect(w, r, resourceListPath, http.StatusFound)
}

func (s *Server) handleResourceList(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	s.mutex.Lock()
	authenticated := sess.stage == stageAuthenticated
	s.mutex.Unlock()

	if !authenticated {
		http.Redirect(w, r, passwordPagePath, http.StatusFound)
		return
	}
	s.render(w, resourceListTemplate, fmt.Sprintf("Welcome, %s.", s.opts.Account.Username))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	s.mutex.Lock()
	sess.stage = stagePassword
	sess.csrf = ""
	s.mutex.Unlock()

	http.Redirect(w, r, passwordPagePath, http.StatusFound)
}
