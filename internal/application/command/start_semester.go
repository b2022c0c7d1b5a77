package command

import (
	"context"
	"errors"

	"github.com/physed-hub/phys-ed-journal/internal/domain/semester"
)

// ══════════════════════════════════════════════════════════════════════════════
// START SEMESTER COMMAND
// Administrative action: closes the current semester and opens a new active
// one. The engine itself only ever reads the active semester; this is the
// single place it changes.
// ══════════════════════════════════════════════════════════════════════════════

// StartSemesterCommand contains the data to start a new semester.
type StartSemesterCommand struct {
	// Name is the semester name, "YYYY-YYYY/season".
	Name string
}

// Validate validates the command.
func (c StartSemesterCommand) Validate() error {
	if !semester.IsValidName(c.Name) {
		return semester.ErrInvalidSemesterName
	}
	return nil
}

// StartSemesterHandler handles the StartSemesterCommand.
type StartSemesterHandler struct {
	semesters semester.Repository
	active    semester.ActiveProvider
}

// NewStartSemesterHandler creates a new StartSemesterHandler.
func NewStartSemesterHandler(semesters semester.Repository, active semester.ActiveProvider) *StartSemesterHandler {
	return &StartSemesterHandler{semesters: semesters, active: active}
}

// Handle executes the start semester command and busts the cached active
// semester so in-flight readers pick up the new value.
func (h *StartSemesterHandler) Handle(ctx context.Context, cmd StartSemesterCommand) (*semester.Semester, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	current, err := h.active.Active(ctx)
	if err != nil && !errors.Is(err, semester.ErrSemesterNotFound) {
		return nil, err
	}
	if current != nil && current.Name == cmd.Name {
		return nil, semester.ErrSemesterAlreadyActive
	}

	created, err := h.semesters.StartNew(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}

	if err := h.active.Refresh(ctx); err != nil {
		return nil, err
	}

	return created, nil
}
