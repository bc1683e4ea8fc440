package booking

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/carebook-api/internal/model"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
)

// SubmitRequest is a complete draft sent in one request.
type SubmitRequest struct {
	ServiceID      uuid.UUID           `json:"service_id" binding:"required"`
	Date           string              `json:"date" binding:"required,datetime=2006-01-02"`
	Time           string              `json:"time" binding:"required,timeslot"`
	LocationID     *uuid.UUID          `json:"location_id"`
	PractitionerID *uuid.UUID          `json:"practitioner_id"`
	GroupSize      int                 `json:"group_size" binding:"omitempty,min=1,max=50"`
	Notes          string              `json:"notes" binding:"max=1000"`
	PaymentMethod  model.PaymentMethod `json:"payment_method" binding:"required,oneof=online pay-on-arrival"`
	SuccessURL     string              `json:"success_url" binding:"omitempty,url"`
	CancelURL      string              `json:"cancel_url" binding:"omitempty,url"`
	FailureURL     string              `json:"failure_url" binding:"omitempty,url"`
}

func (r SubmitRequest) ReturnURLs() ReturnURLs {
	return ReturnURLs{Success: r.SuccessURL, Cancel: r.CancelURL, Failure: r.FailureURL}
}

// Replay walks a fresh wizard through every step with the request's values,
// so a submitted draft passes the same guards as an interactive one.
func (s *Service) Replay(svc *model.Service, req SubmitRequest) (*Wizard, error) {
	w := s.NewWizard()

	if err := w.SelectService(svc); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if err := w.Next(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.BadRequest("date must be YYYY-MM-DD", err)
	}
	if err := w.SelectDate(date); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if err := w.SelectTime(req.Time); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if err := w.Next(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	w.SetLocation(req.LocationID)
	w.SetPractitioner(req.PractitionerID)
	if req.GroupSize != 0 {
		if err := w.SetGroupSize(req.GroupSize); err != nil {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
	}
	w.SetNotes(req.Notes)
	if err := w.Next(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := w.SetPaymentMethod(req.PaymentMethod); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	return w, nil
}
