package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lessonfolio/lessonfolio-backend/api/responses"
	"github.com/lessonfolio/lessonfolio-backend/api/validators"
	"github.com/lessonfolio/lessonfolio-backend/internal/access"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
	"github.com/lessonfolio/lessonfolio-backend/pkg/logger"
)

type profileAccessRequest struct {
	Passcode string `json:"passcode" validate:"omitempty,max=16"`
}

// ProfileAccess answers whether a portfolio page may be shown. The endpoint
// is public and returns only a boolean; a malformed profile id reads as not
// accessible rather than an error so enumeration learns nothing.
func ProfileAccess(svc *access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "access service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body profileAccessRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		studentID, err := uuid.Parse(chi.URLParam(r, "studentId"))
		if err != nil {
			responses.WriteSuccess(w, access.Decision{Accessible: false})
			return
		}

		decision, err := svc.CheckAccess(r.Context(), studentID, body.Passcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, decision)
	}
}
