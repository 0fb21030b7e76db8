package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lessonfolio/lessonfolio-backend/api/middleware"
	"github.com/lessonfolio/lessonfolio-backend/api/responses"
	"github.com/lessonfolio/lessonfolio-backend/internal/billing"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
	"github.com/lessonfolio/lessonfolio-backend/pkg/logger"
)

// BillingCheckout starts a hosted checkout session for the studio plan.
func BillingCheckout(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		teacherID, err := teacherIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.StartCheckout(r.Context(), teacherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// BillingEntitlement returns the teacher's current entitlement snapshot.
func BillingEntitlement(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		teacherID, err := teacherIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Entitlement(r.Context(), teacherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func teacherIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.TeacherIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid teacher id")
	}
	return id, nil
}
