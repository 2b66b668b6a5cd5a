package application

import (
	"fmt"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"github.com/google/uuid"
)

// ActiveAttachment locates one attachment message in a session.
type ActiveAttachment struct {
	Index  int
	Marker domain.Marker
}

// AttachMember is one body of a batch attach.
type AttachMember struct {
	SourceID string
	Body     string
}

// Registry wraps external content into history messages and keeps at most
// one message per source.
//
// Every mutation is built on a staged copy of the session and committed only
// once the budget check passed, so a failed attach leaves the session as it
// was.
type Registry struct {
	ledger     *Ledger
	clock      ports.Clock
	newGroupID func() string
}

func NewRegistry(ledger *Ledger, clock ports.Clock) *Registry {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Registry{ledger: ledger, clock: clock, newGroupID: uuid.NewString}
}

func (r *Registry) Wrap(sourceID string, kind domain.AttachmentKind, groupID string, raw string) domain.Message {
	marker := domain.Marker{SourceID: sourceID, Kind: kind, GroupID: groupID}
	return domain.NewMessage(domain.RoleUser, marker.Wrap(raw), r.clock.Now())
}

// FindActive returns every attachment message in history order. Only user
// messages carry attachments; a reply that quotes a marker line is not one.
func FindActive(session *domain.Session) []ActiveAttachment {
	var out []ActiveAttachment
	for i := 0; i < session.Len(); i++ {
		m := session.Message(i)
		if m.Role != domain.RoleUser {
			continue
		}
		if marker, ok := m.Marker(); ok {
			out = append(out, ActiveAttachment{Index: i, Marker: marker})
		}
	}
	return out
}

// Attach replaces any earlier message for sourceID with raw and then
// enforces the budget.
func (r *Registry) Attach(session *domain.Session, budget domain.ContextBudget, sourceID string, kind domain.AttachmentKind, raw string) (Truncation, error) {
	if kind == domain.KindDirectoryMember {
		return Truncation{}, fmt.Errorf("attach %q: directory members are attached as a group", sourceID)
	}

	return r.attach(session, budget, []domain.Message{r.Wrap(sourceID, kind, "", raw)})
}

// AttachGroup attaches members under one fresh group id so a single purge
// removes them all. It returns the group id.
func (r *Registry) AttachGroup(session *domain.Session, budget domain.ContextBudget, members []AttachMember) (string, Truncation, error) {
	if len(members) == 0 {
		return "", Truncation{}, domain.ErrNoEligibleFiles
	}

	groupID := r.newGroupID()
	messages := make([]domain.Message, 0, len(members))
	for _, member := range members {
		messages = append(messages, r.Wrap(member.SourceID, domain.KindDirectoryMember, groupID, member.Body))
	}

	truncation, err := r.attach(session, budget, messages)
	if err != nil {
		return "", Truncation{}, err
	}
	return groupID, truncation, nil
}

func (r *Registry) attach(session *domain.Session, budget domain.ContextBudget, messages []domain.Message) (Truncation, error) {
	sources := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		marker, _ := m.Marker()
		sources[marker.SourceID] = struct{}{}
	}

	staged := session.Clone()
	var stale []int
	for _, active := range FindActive(staged) {
		if _, ok := sources[active.Marker.SourceID]; ok {
			stale = append(stale, active.Index)
		}
	}
	staged.Remove(stale...)

	turnStart := staged.Len()
	staged.Append(messages...)
	r.ledger.Prepare(staged)

	truncation, err := r.ledger.EnforceBudgetFrom(staged, budget, turnStart)
	if err != nil {
		return Truncation{}, fmt.Errorf("attach content: %w", err)
	}

	session.Commit(staged)
	return truncation, nil
}

// Purge removes the n-th active attachment, or its whole group, and returns
// the tokens freed.
func (r *Registry) Purge(session *domain.Session, n int) (int, error) {
	active := FindActive(session)
	if n < 0 || n >= len(active) {
		return 0, fmt.Errorf("purge attachment %d: %w", n+1, domain.ErrAttachmentNotFound)
	}

	target := active[n].Marker
	indices := []int{active[n].Index}
	if target.GroupID != "" {
		indices = indices[:0]
		for _, a := range active {
			if a.Marker.GroupID == target.GroupID {
				indices = append(indices, a.Index)
			}
		}
	}

	r.ledger.Prepare(session)
	return session.Remove(indices...), nil
}

func (r *Registry) PurgeAll(session *domain.Session) int {
	active := FindActive(session)
	indices := make([]int, 0, len(active))
	for _, a := range active {
		indices = append(indices, a.Index)
	}

	r.ledger.Prepare(session)
	return session.Remove(indices...)
}
