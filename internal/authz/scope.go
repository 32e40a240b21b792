package authz

// ScopeKind names a row restriction applied to a listing query.
type ScopeKind int

const (
	// ScopeNone matches nothing.
	ScopeNone ScopeKind = iota
	// ScopeAll matches everything.
	ScopeAll
	// ScopeOwnedBy matches rows owned by the teacher UserID.
	ScopeOwnedBy
	// ScopeEnrolledBy matches rows linked to an enrollment of UserID.
	ScopeEnrolledBy
	// ScopeSelf matches the single row UserID.
	ScopeSelf
	// ScopeStudentsOf matches users enrolled in a course taught by UserID.
	ScopeStudentsOf
)

// Scope is a filter predicate produced by the engine and resolved into a
// query by the storage layer.
type Scope struct {
	Kind   ScopeKind
	UserID uint
}

func (s Scope) Empty() bool {
	return s.Kind == ScopeNone
}

// CourseScope restricts course listings.
func (e *Engine) CourseScope(actor Actor) Scope {
	switch actor.Role {
	case RoleAdmin:
		return Scope{Kind: ScopeAll}
	case RoleTeacher:
		return Scope{Kind: ScopeOwnedBy, UserID: actor.ID}
	case RoleStudent:
		return Scope{Kind: ScopeEnrolledBy, UserID: actor.ID}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// UserScope restricts user listings.
func (e *Engine) UserScope(actor Actor) Scope {
	switch actor.Role {
	case RoleAdmin:
		return Scope{Kind: ScopeAll}
	case RoleTeacher:
		return Scope{Kind: ScopeStudentsOf, UserID: actor.ID}
	case RoleStudent:
		return Scope{Kind: ScopeSelf, UserID: actor.ID}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// EnrollmentScope restricts enrollment listings.
func (e *Engine) EnrollmentScope(actor Actor) Scope {
	switch actor.Role {
	case RoleAdmin:
		return Scope{Kind: ScopeAll}
	case RoleTeacher:
		return Scope{Kind: ScopeOwnedBy, UserID: actor.ID}
	case RoleStudent:
		return Scope{Kind: ScopeSelf, UserID: actor.ID}
	default:
		return Scope{Kind: ScopeNone}
	}
}
