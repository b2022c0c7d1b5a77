package command

import (
	"context"
	"time"

	"github.com/physed-hub/phys-ed-journal/internal/domain/archive"
	"github.com/physed-hub/phys-ed-journal/internal/domain/journal"
	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
	"github.com/physed-hub/phys-ed-journal/internal/domain/student"
	"github.com/physed-hub/phys-ed-journal/pkg/timeutil"
)

// In-memory fakes emulating the storage contracts, including the atomic
// write-sets: each Add*/Archive call applies all of its writes or none.

type fakeStore struct {
	students    map[string]*student.Student
	groupValues map[string]float64
	visits      []*journal.VisitRecord
	points      []*journal.PointsRecord
	archived    []*archive.ArchivedStudent
	semesters   []*semester.Semester
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students:    make(map[string]*student.Student),
		groupValues: make(map[string]float64),
	}
}

func (s *fakeStore) addSemester(id int, name string, active bool) {
	s.semesters = append(s.semesters, &semester.Semester{ID: id, Name: name, IsActive: active})
}

func (s *fakeStore) addStudent(st *student.Student, groupVisitValue float64) {
	s.students[st.StudentGUID] = st
	s.groupValues[st.GroupNumber] = groupVisitValue
}

// ─────────────────────────────────────────────────────────────────────────────
// student.Repository
// ─────────────────────────────────────────────────────────────────────────────

type fakeStudentRepo struct{ store *fakeStore }

func (r *fakeStudentRepo) Create(_ context.Context, st *student.Student) error {
	if _, ok := r.store.students[st.StudentGUID]; ok {
		return student.ErrStudentAlreadyExists
	}
	r.store.students[st.StudentGUID] = st
	return nil
}

func (r *fakeStudentRepo) GetByGUID(_ context.Context, guid string) (*student.Student, error) {
	st, ok := r.store.students[guid]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return st, nil
}

func (r *fakeStudentRepo) Exists(_ context.Context, guid string) (bool, error) {
	_, ok := r.store.students[guid]
	return ok, nil
}

func (r *fakeStudentRepo) GetArchiveSnapshot(_ context.Context, guid string) (*student.ArchiveSnapshot, error) {
	st, ok := r.store.students[guid]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return &student.ArchiveSnapshot{
		StudentGUID:                 st.StudentGUID,
		FullName:                    st.FullName,
		GroupNumber:                 st.GroupNumber,
		GroupVisitValue:             r.store.groupValues[st.GroupNumber],
		Visits:                      st.Visits,
		AdditionalPoints:            st.AdditionalPoints,
		PointsForStandards:          st.PointsForStandards,
		HasDebtFromPreviousSemester: st.HasDebtFromPreviousSemester,
		ArchivedVisitValue:          st.ArchivedVisitValue,
		CurrentSemesterName:         st.CurrentSemesterName,
	}, nil
}

func (r *fakeStudentRepo) FindBySemesterOtherThan(_ context.Context, name string, limit int) ([]string, error) {
	var guids []string
	for guid, st := range r.store.students {
		if st.IsActive && st.CurrentSemesterName != name {
			guids = append(guids, guid)
		}
		if limit > 0 && len(guids) == limit {
			break
		}
	}
	return guids, nil
}

func (r *fakeStudentRepo) UpsertBatch(_ context.Context, students []*student.Student) error {
	for _, st := range students {
		if existing, ok := r.store.students[st.StudentGUID]; ok {
			existing.FullName = st.FullName
			existing.GroupNumber = st.GroupNumber
			existing.IsActive = st.IsActive
			continue
		}
		r.store.students[st.StudentGUID] = st
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// journal.Repository
// ─────────────────────────────────────────────────────────────────────────────

type fakeJournalRepo struct{ store *fakeStore }

// sameDate keys duplicates on the Moscow calendar day, same as the
// partial unique index over the DATE column.
func sameDate(a, b time.Time) bool {
	return timeutil.IsSameDay(a, b)
}

func (r *fakeJournalRepo) AddVisit(_ context.Context, record *journal.VisitRecord) error {
	st, ok := r.store.students[record.StudentGUID]
	if !ok {
		return student.ErrStudentNotFound
	}
	for _, v := range r.store.visits {
		if !v.IsArchived && v.StudentGUID == record.StudentGUID && sameDate(v.Date, record.Date) {
			return &journal.VisitAlreadyExistsError{Date: record.Date}
		}
	}
	st.Visits++
	r.store.visits = append(r.store.visits, record)
	return nil
}

func (r *fakeJournalRepo) AddPoints(_ context.Context, record *journal.PointsRecord) error {
	st, ok := r.store.students[record.StudentGUID]
	if !ok {
		return student.ErrStudentNotFound
	}
	st.AdditionalPoints += record.Points
	r.store.points = append(r.store.points, record)
	return nil
}

func (r *fakeJournalRepo) AddStandardsPoints(_ context.Context, record *journal.PointsRecord) error {
	st, ok := r.store.students[record.StudentGUID]
	if !ok {
		return student.ErrStudentNotFound
	}
	if st.PointsForStandards+record.Points > journal.MaxPointsForStandards {
		return journal.ErrStandardsCapExceeded
	}
	st.PointsForStandards += record.Points
	r.store.points = append(r.store.points, record)
	return nil
}

func (r *fakeJournalRepo) GetVisitDates(_ context.Context, studentGUID string) ([]time.Time, error) {
	var dates []time.Time
	for _, v := range r.store.visits {
		if !v.IsArchived && v.StudentGUID == studentGUID {
			dates = append(dates, v.Date)
		}
	}
	return dates, nil
}

func (r *fakeJournalRepo) GetVisitHistory(_ context.Context, studentGUID string, _ int) ([]*journal.VisitRecord, error) {
	var out []*journal.VisitRecord
	for _, v := range r.store.visits {
		if v.StudentGUID == studentGUID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeJournalRepo) GetPointsHistory(_ context.Context, studentGUID string, _ int) ([]*journal.PointsRecord, error) {
	var out []*journal.PointsRecord
	for _, p := range r.store.points {
		if p.StudentGUID == studentGUID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// archive.Repository
// ─────────────────────────────────────────────────────────────────────────────

type fakeArchiveRepo struct{ store *fakeStore }

func (r *fakeArchiveRepo) Archive(_ context.Context, payload archive.ArchivePayload) (*archive.ArchivedStudent, error) {
	for _, a := range r.store.archived {
		if a.StudentGUID == payload.StudentGUID && a.SemesterID == payload.SemesterID {
			return nil, archive.ErrAlreadyArchived
		}
	}

	st, ok := r.store.students[payload.StudentGUID]
	if !ok {
		return nil, student.ErrStudentNotFound
	}

	snapshot := &archive.ArchivedStudent{
		StudentGUID: payload.StudentGUID,
		SemesterID:  payload.SemesterID,
		FullName:    payload.FullName,
		GroupNumber: payload.GroupNumber,
		TotalPoints: payload.TotalPoints,
		Visits:      payload.Visits,
		ArchivedAt:  time.Now(),
	}
	r.store.archived = append(r.store.archived, snapshot)

	// Stale cleanup: visits archived in a prior pass are dropped.
	kept := r.store.visits[:0]
	for _, v := range r.store.visits {
		if v.StudentGUID == payload.StudentGUID && v.IsArchived {
			continue
		}
		kept = append(kept, v)
	}
	r.store.visits = kept

	for _, v := range r.store.visits {
		if v.StudentGUID == payload.StudentGUID {
			v.IsArchived = true
		}
	}
	for _, p := range r.store.points {
		if p.StudentGUID == payload.StudentGUID {
			p.IsArchived = true
		}
	}

	st.Visits = 0
	st.AdditionalPoints = 0
	st.PointsForStandards = 0
	st.HasDebtFromPreviousSemester = false
	st.ArchivedVisitValue = 0
	st.CurrentSemesterName = payload.ActiveSemesterName

	return snapshot, nil
}

func (r *fakeArchiveRepo) MarkDebt(_ context.Context, studentGUID string, visitValue float64) error {
	st, ok := r.store.students[studentGUID]
	if !ok {
		return student.ErrStudentNotFound
	}
	st.HasDebtFromPreviousSemester = true
	st.ArchivedVisitValue = visitValue
	return nil
}

func (r *fakeArchiveRepo) GetBySemester(_ context.Context, semesterID int) ([]*archive.ArchivedStudent, error) {
	var out []*archive.ArchivedStudent
	for _, a := range r.store.archived {
		if a.SemesterID == semesterID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeArchiveRepo) GetByStudent(_ context.Context, studentGUID string) ([]*archive.ArchivedStudent, error) {
	var out []*archive.ArchivedStudent
	for _, a := range r.store.archived {
		if a.StudentGUID == studentGUID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// semester.Repository + semester.ActiveProvider
// ─────────────────────────────────────────────────────────────────────────────

type fakeSemesterRepo struct{ store *fakeStore }

func (r *fakeSemesterRepo) GetActive(_ context.Context) (*semester.Semester, error) {
	for _, s := range r.store.semesters {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, semester.ErrSemesterNotFound
}

func (r *fakeSemesterRepo) GetByID(_ context.Context, id int) (*semester.Semester, error) {
	for _, s := range r.store.semesters {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, semester.ErrSemesterNotFound
}

func (r *fakeSemesterRepo) GetByName(_ context.Context, name string) (*semester.Semester, error) {
	for _, s := range r.store.semesters {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, semester.ErrSemesterNotFound
}

func (r *fakeSemesterRepo) StartNew(_ context.Context, name string) (*semester.Semester, error) {
	maxID := 0
	for _, s := range r.store.semesters {
		s.IsActive = false
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	created := &semester.Semester{ID: maxID + 1, Name: name, IsActive: true}
	r.store.semesters = append(r.store.semesters, created)
	return created, nil
}

type fakeActiveProvider struct {
	repo      *fakeSemesterRepo
	refreshed int
}

func (p *fakeActiveProvider) Active(ctx context.Context) (*semester.Semester, error) {
	return p.repo.GetActive(ctx)
}

func (p *fakeActiveProvider) Refresh(context.Context) error {
	p.refreshed++
	return nil
}

// testEnv bundles the fakes wired over one shared store.
type testEnv struct {
	store     *fakeStore
	students  *fakeStudentRepo
	journal   *fakeJournalRepo
	archives  *fakeArchiveRepo
	semesters *fakeSemesterRepo
	active    *fakeActiveProvider
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	semRepo := &fakeSemesterRepo{store: store}
	return &testEnv{
		store:     store,
		students:  &fakeStudentRepo{store: store},
		journal:   &fakeJournalRepo{store: store},
		archives:  &fakeArchiveRepo{store: store},
		semesters: semRepo,
		active:    &fakeActiveProvider{repo: semRepo},
	}
}
