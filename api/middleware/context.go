package middleware

import "context"

type contextKey string

const ctxTeacherID contextKey = "teacher_id"

func TeacherIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTeacherID).(string); ok {
		return v
	}
	return ""
}

// WithTeacherID injects the teacher identifier into the context.
func WithTeacherID(ctx context.Context, teacherID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTeacherID, teacherID)
}
