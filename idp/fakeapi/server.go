// Package fakeapi is an in-process stand-in for the IDP backend. It serves
// the same routes, keeps applications in memory and records every request.
package fakeapi

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-idp-client/idp/util"
)

var logger = logrus.WithField("component", "idp.fakeapi")

const (
	PathApplications  = "/api/applications"
	PathPaymentIntent = "/api/create-payment-intent"
	PathPaymentStatus = "/api/update-payment-status"
	PathVerifyPayment = "/api/verify-payment"
)

// Request is a recorded call.
type Request struct {
	Method        string
	Path          string
	Header        http.Header
	ContentLength int64
	Body          []byte
	Form          map[string]string
	Files         map[string]File
}

type File struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Failure makes a route answer with Status and a Laravel style error body.
type Failure struct {
	Status  int
	Message string
	Errors  map[string][]string
}

type Application struct {
	ID              int64
	Fields          map[string]string
	VehicleTypes    []string
	Files           map[string]File
	PaymentStatus   string
	PaymentIntentID string
	Amount          string
}

type intent struct {
	applicationID int64
	amount        string
}

type Server struct {
	router *gin.Engine

	mu           sync.Mutex
	nextID       int64
	applications map[int64]*Application
	idempotency  map[string]int64
	intents      map[string]intent
	sessions     map[string]int64
	failures     map[string]Failure
	requests     []Request
}

type Option func(*Server)

// WithFirstID sets the id given to the first created application.
func WithFirstID(id int64) Option {
	return func(s *Server) {
		s.nextID = id
	}
}

func New(opts ...Option) *Server {
	if !util.DebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:       router,
		nextID:       1,
		applications: make(map[int64]*Application),
		idempotency:  make(map[string]int64),
		intents:      make(map[string]intent),
		sessions:     make(map[string]int64),
		failures:     make(map[string]Failure),
	}
	for _, o := range opts {
		o(s)
	}

	router.Use(s.record, s.inject)

	api := router.Group("/api")
	{
		api.POST("/applications", s.handleCreateApplication)
		api.GET("/applications/:id", s.handleGetApplication)
		api.POST("/create-payment-intent", s.handleCreatePaymentIntent)
		api.POST("/update-payment-status", s.handleUpdatePaymentStatus)
		api.POST("/verify-payment", s.handleVerifyPayment)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	logger.WithField("addr", addr).Info("fake backend listening")
	return s.router.Run(addr)
}

// Fail makes every request to path answer with f until Recover is called.
func (s *Server) Fail(path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = f
}

func (s *Server) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// DeclineIntents makes payment intent creation answer success:false with message.
func (s *Server) DeclineIntents(message string) {
	s.Fail(PathPaymentIntent, Failure{Status: http.StatusOK, Message: message})
}

// NewSession registers a hosted checkout session paying for application id.
func (s *Server) NewSession(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid := "cs_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s.sessions[sid] = id
	return sid
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request to path.
func (s *Server) Last(path string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Path == path {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

func (s *Server) Application(id int64) (Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return Application{}, false
	}
	return *a, true
}

const recordKey = "fakeapi.record"

func (s *Server) record(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Header:        c.Request.Header.Clone(),
		ContentLength: c.Request.ContentLength,
		Body:          body,
	})
	c.Set(recordKey, len(s.requests)-1)
	s.mu.Unlock()

	logger.WithField("method", c.Request.Method).WithField("path", c.Request.URL.Path).Debug("request")
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.failures[c.Request.URL.Path]
	s.mu.Unlock()
	if !ok {
		c.Next()
		return
	}

	body := gin.H{"success": false}
	if f.Message != "" {
		body["message"] = f.Message
	}
	if len(f.Errors) > 0 {
		body["errors"] = f.Errors
	}
	status := f.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, body)
}

func (s *Server) annotate(c *gin.Context, form map[string]string, files map[string]File) {
	idx, ok := c.Get(recordKey)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &s.requests[idx.(int)]
	r.Form = form
	r.Files = files
}
