package service

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"

	"studentintake/internal/model"
)

// selectionSeparator joins the values of a multi-select field.
const selectionSeparator = ", "

type StudentForm struct {
	Name      string
	Class     string
	Streams   []string
	Subjects  []string
	Interests string
	Skills    string
}

type StudentQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Name      string
	Class     string
	Stream    string
}

var sortableColumns = map[string]bool{
	"id":            true,
	"name":          true,
	"student_class": true,
	"created_at":    true,
}

type StudentService struct {
	db *gorm.DB
}

func NewStudentService(db *gorm.DB) *StudentService {
	return &StudentService{db: db}
}

// Submit validates the intake form and stores it as a new student record.
func (s *StudentService) Submit(ctx context.Context, form StudentForm) (*model.Student, error) {
	student := &model.Student{
		Name:         strings.TrimSpace(form.Name),
		StudentClass: strings.TrimSpace(form.Class),
		Stream:       JoinSelection(form.Streams),
		Subjects:     JoinSelection(form.Subjects),
		Interests:    strings.TrimSpace(form.Interests),
		Skills:       strings.TrimSpace(form.Skills),
	}

	switch {
	case student.Name == "":
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	case student.StudentClass == "":
		return nil, &ValidationError{Field: "class", Reason: "is required"}
	case student.Stream == "":
		return nil, &ValidationError{Field: "stream", Reason: "needs at least one selection"}
	case student.Subjects == "":
		return nil, &ValidationError{Field: "subjects", Reason: "needs at least one selection"}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(student).Error; err != nil {
			return persistenceError("create student", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

func (s *StudentService) ListStudents(ctx context.Context, q StudentQuery) ([]model.Student, int64, int, error) {
	q = q.Normalized()

	students := []model.Student{}
	dbQuery := s.db.WithContext(ctx).Model(&model.Student{})

	// Apply filters
	if q.Name != "" {
		dbQuery = dbQuery.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(q.Name))+"%")
	}
	if q.Class != "" {
		dbQuery = dbQuery.Where("student_class = ?", q.Class)
	}
	if q.Stream != "" {
		dbQuery = dbQuery.Where(`stream LIKE ? ESCAPE '\'`, "%"+escapeLike(q.Stream)+"%")
	}

	dbQuery = dbQuery.Session(&gorm.Session{})

	var totalCount int64
	if err := dbQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, 0, persistenceError("count students", err)
	}

	err := dbQuery.Order(q.SortBy + " " + q.SortOrder).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&students).Error
	if err != nil {
		return nil, 0, 0, persistenceError("list students", err)
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(q.Limit)))
	return students, totalCount, totalPages, nil
}

// Normalized applies defaults and bounds to paging and sorting.
func (q StudentQuery) Normalized() StudentQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if !sortableColumns[q.SortBy] {
		q.SortBy = "name"
	}
	if strings.ToLower(q.SortOrder) == "desc" {
		q.SortOrder = "desc"
	} else {
		q.SortOrder = "asc"
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes filter input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// JoinSelection joins multi-select values in the order they were chosen,
// skipping blanks.
func JoinSelection(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, selectionSeparator)
}
