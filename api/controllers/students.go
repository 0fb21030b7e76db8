package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lessonfolio/lessonfolio-backend/api/responses"
	"github.com/lessonfolio/lessonfolio-backend/api/validators"
	"github.com/lessonfolio/lessonfolio-backend/internal/students"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
	"github.com/lessonfolio/lessonfolio-backend/pkg/logger"
)

type createStudentRequest struct {
	DisplayName string  `json:"display_name" validate:"required,min=1,max=120"`
	Instrument  *string `json:"instrument" validate:"omitempty,max=60"`
	IsPrivate   bool    `json:"is_private"`
	Passcode    string  `json:"passcode" validate:"omitempty,numeric,min=4,max=8"`
}

// StudentsCreate adds a student profile, subject to the capacity limit.
func StudentsCreate(svc *students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "student service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		teacherID, err := teacherIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createStudentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		student, err := svc.Create(r.Context(), teacherID, students.CreateStudentInput{
			DisplayName: body.DisplayName,
			Instrument:  body.Instrument,
			IsPrivate:   body.IsPrivate,
			Passcode:    body.Passcode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, student)
	}
}

// StudentsList returns the teacher's student profiles.
func StudentsList(svc *students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "student service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		teacherID, err := teacherIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), teacherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// StudentsDelete removes a student profile, freeing capacity.
func StudentsDelete(svc *students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "student service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		teacherID, err := teacherIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		studentID, err := uuid.Parse(chi.URLParam(r, "studentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid student id"))
			return
		}

		if err := svc.Delete(r.Context(), teacherID, studentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// StudentsCapacity reports whether the teacher can add another profile.
func StudentsCapacity(svc *students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "student service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		teacherID, err := teacherIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Capacity(r.Context(), teacherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}
