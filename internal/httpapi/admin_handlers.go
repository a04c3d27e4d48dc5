package httpapi

import (
	"github.com/gin-gonic/gin"

	"smartattend/internal/importer"
	"smartattend/internal/roster"
)

type createAccountRequest struct {
	UserCode string `json:"userCode" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// CreateAccount registers an account and, for students and teachers, the
// matching profile row.
func (h *Handler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userCode, password and role required")
		return
	}
	ctx := c.Request.Context()
	if err := h.accounts.Create(ctx, req.UserCode, req.Password, req.Role); err != nil {
		fail(c, err)
		return
	}
	name := req.FullName
	if name == "" {
		name = req.UserCode
	}
	var email *string
	if req.Email != "" {
		email = &req.Email
	}
	var err error
	switch req.Role {
	case "student":
		err = h.roster.CreateStudentProfile(ctx, roster.Student{StudentID: req.UserCode, FullName: name, Email: email})
	case "teacher":
		err = h.roster.CreateTeacherProfile(ctx, roster.Teacher{TeacherID: req.UserCode, FullName: name, Email: email})
	}
	if err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"userCode": req.UserCode, "role": req.Role})
}

// ListAccounts returns all accounts.
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, accounts)
}

type updateAccountRequest struct {
	Role     string `json:"role"`
	Password string `json:"password"`
}

// UpdateAccount edits the role and/or resets the password of an account.
func (h *Handler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	if req.Role == "" && req.Password == "" {
		badRequest(c, "nothing to update")
		return
	}
	code := c.Param("code")
	ctx := c.Request.Context()
	if req.Role != "" {
		if err := h.accounts.SetRole(ctx, code, req.Role); err != nil {
			fail(c, err)
			return
		}
	}
	if req.Password != "" {
		if err := h.accounts.ResetPassword(ctx, code, req.Password); err != nil {
			fail(c, err)
			return
		}
	}
	ok(c, gin.H{"userCode": code})
}

type createClassRequest struct {
	ClassID     string  `json:"classId" binding:"required"`
	ClassName   string  `json:"className" binding:"required"`
	SubjectCode *string `json:"subjectCode"`
	SubjectName *string `json:"subjectName"`
	Cohort      *string `json:"cohort"`
	TeacherID   *string `json:"teacherId"`
}

// CreateClass registers a class.
func (h *Handler) CreateClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "classId and className required")
		return
	}
	cls := roster.Class{
		ClassID:     req.ClassID,
		ClassName:   req.ClassName,
		SubjectCode: req.SubjectCode,
		SubjectName: req.SubjectName,
		Cohort:      req.Cohort,
		TeacherID:   req.TeacherID,
	}
	if err := h.roster.CreateClass(c.Request.Context(), cls); err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"classId": req.ClassID})
}

// ListClasses returns every class.
func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.roster.ListClasses(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, classes)
}

type enrollRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

// EnrollStudent adds a student to a class roster.
func (h *Handler) EnrollStudent(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "studentId required")
		return
	}
	if err := h.roster.Enroll(c.Request.Context(), c.Param("id"), req.StudentID); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"classId": c.Param("id"), "studentId": req.StudentID})
}

// ImportTimetable ingests a timetable workbook (multipart field "file").
func (h *Handler) ImportTimetable(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "file field required")
		return
	}
	defer file.Close()

	entries, err := importer.ParseTimetable(file)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	saved, err := h.timetable.SaveAll(c.Request.Context(), entries)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"imported": saved})
}
