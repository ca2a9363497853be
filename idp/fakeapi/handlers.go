package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

const maxMultipartMemory = 32 << 20

var requiredFields = []string{"email", "firstName", "lastName", "idpPeriod"}

func (s *Server) handleCreateApplication(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Expected multipart/form-data: " + err.Error()})
		return
	}
	mf := c.Request.MultipartForm

	form := make(map[string]string, len(mf.Value))
	for k, v := range mf.Value {
		if len(v) > 0 {
			form[k] = v[0]
		}
	}
	files := make(map[string]File, len(mf.File))
	for k, hs := range mf.File {
		if len(hs) == 0 {
			continue
		}
		h := hs[0]
		f, err := h.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		files[k] = File{FileName: h.Filename, ContentType: h.Header.Get("Content-Type"), Data: data}
	}
	s.annotate(c, form, files)

	errs := map[string][]string{}
	for _, f := range requiredFields {
		if strings.TrimSpace(form[f]) == "" {
			errs[f] = []string{fmt.Sprintf("The %s field is required.", f)}
		}
	}
	if _, ok := files["signature"]; !ok {
		errs["signature"] = []string{"The signature field is required."}
	}
	vehicles, err := decodeStrings(form["vehicleTypes"])
	if err != nil {
		errs["vehicleTypes"] = []string{"The vehicle types must be a JSON array."}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": "The given data was invalid.",
			"errors":  errs,
		})
		return
	}

	key := c.GetHeader("Idempotency-Key")

	s.mu.Lock()
	if id, ok := s.idempotency[key]; ok && key != "" {
		a := s.applications[id]
		s.mu.Unlock()
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Application submitted successfully", "data": a.view()})
		return
	}
	a := &Application{
		ID:            s.nextID,
		Fields:        form,
		VehicleTypes:  vehicles,
		Files:         files,
		PaymentStatus: "pending",
	}
	s.nextID++
	s.applications[a.ID] = a
	if key != "" {
		s.idempotency[key] = a.ID
	}
	view := a.view()
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Application submitted successfully",
		"data":    view,
	})
}

func (s *Server) handleGetApplication(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid application id"})
		return
	}

	s.mu.Lock()
	a, ok := s.applications[id]
	var view gin.H
	if ok {
		view = a.view()
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Application not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": view})
}

type paymentIntentRequest struct {
	ApplicationID int64   `json:"application_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	IDPPeriod     string  `json:"idp_period"`
	Email         string  `json:"email"`
	CustomerName  string  `json:"customer_name"`
}

func (s *Server) handleCreatePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[req.ApplicationID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Application not found"})
		return
	}

	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s.intents[id] = intent{applicationID: req.ApplicationID, amount: strconv.FormatFloat(req.Amount, 'f', 2, 64)}
	s.applications[req.ApplicationID].Amount = s.intents[id].amount

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"client_secret":     id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		"payment_intent_id": id,
	})
}

type paymentStatusRequest struct {
	ApplicationID   int64  `json:"application_id" binding:"required"`
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status" binding:"required,oneof=paid failed"`
}

func (s *Server) handleUpdatePaymentStatus(c *gin.Context) {
	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.applications[req.ApplicationID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Application not found"})
		return
	}
	a.PaymentStatus = req.Status
	a.PaymentIntentID = req.PaymentIntentID

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Payment status updated",
		"application": a.view(),
	})
}

type verifyRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (s *Server) handleVerifyPayment(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.sessions[req.SessionID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Payment session not found"})
		return
	}
	a, ok := s.applications[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Application not found"})
		return
	}
	a.PaymentStatus = "paid"

	c.JSON(http.StatusOK, gin.H{"success": true, "application": a.view()})
}

// view renders the record the way the backend serializes its model.
func (a *Application) view() gin.H {
	out := gin.H{}
	for k, v := range a.Fields {
		out[k] = v
	}
	out["id"] = a.ID
	out["vehicleTypes"] = a.VehicleTypes
	out["payment_status"] = a.PaymentStatus
	if a.PaymentIntentID != "" {
		out["payment_intent_id"] = a.PaymentIntentID
	}
	if a.Amount != "" {
		out["amount"] = a.Amount
	}
	return out
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	out := []string{}
	err := jx.DecodeStr(raw).Arr(func(d *jx.Decoder) error {
		v, err := d.Str()
		out = append(out, v)
		return err
	})
	return out, err
}
