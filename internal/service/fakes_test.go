package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/repository"
)

// meetingWorld is an in-memory stand-in for the meeting repositories.
type meetingWorld struct {
	mu        sync.Mutex
	seq       int
	meetings  map[string]*models.Meeting
	windows   []models.TimeWindow
	invitees  []models.Invitee
	responses []models.Response
	locations []models.LocationSuggestion
	votes     map[string]map[string]bool

	createErrs []error
	confirmErr error
	confirmed  *repository.ConfirmParams
}

func newMeetingWorld() *meetingWorld {
	return &meetingWorld{meetings: map[string]*models.Meeting{}, votes: map[string]map[string]bool{}}
}

func (w *meetingWorld) nextID(prefix string) string {
	w.seq++
	return fmt.Sprintf("%s-%d", prefix, w.seq)
}

// seed stores a meeting with its windows and returns it.
func (w *meetingWorld) seed(m models.Meeting, windows ...models.TimeWindow) *models.Meeting {
	w.mu.Lock()
	defer w.mu.Unlock()
	if m.Status == "" {
		m.Status = models.MeetingStatusProposing
	}
	w.meetings[m.ID] = &m
	for i := range windows {
		windows[i].MeetingID = m.ID
		windows[i].Position = i
		w.windows = append(w.windows, windows[i])
	}
	return &m
}

func (w *meetingWorld) meetingRepo() *fakeMeetings   { return &fakeMeetings{w} }
func (w *meetingWorld) windowRepo() *fakeWindows     { return &fakeWindows{w} }
func (w *meetingWorld) inviteeRepo() *fakeInvitees   { return &fakeInvitees{w} }
func (w *meetingWorld) responseRepo() *fakeResponses { return &fakeResponses{w} }
func (w *meetingWorld) locationRepo() *fakeLocations { return &fakeLocations{w} }

type fakeMeetings struct{ w *meetingWorld }

func (f *fakeMeetings) Create(_ context.Context, m *models.Meeting, windows []models.TimeWindow, invitees []models.Invitee) error {
	w := f.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.createErrs) > 0 {
		err := w.createErrs[0]
		w.createErrs = w.createErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range w.meetings {
		if existing.ShareSlug == m.ShareSlug {
			return fmt.Errorf("slug %s: %w", m.ShareSlug, repository.ErrDuplicate)
		}
	}
	m.ID = w.nextID("m")
	stored := *m
	w.meetings[m.ID] = &stored
	for i := range windows {
		windows[i].ID = w.nextID("w")
		windows[i].MeetingID = m.ID
		windows[i].Position = i
		w.windows = append(w.windows, windows[i])
	}
	for i := range invitees {
		invitees[i].ID = w.nextID("i")
		invitees[i].MeetingID = m.ID
		w.invitees = append(w.invitees, invitees[i])
	}
	return nil
}

func (f *fakeMeetings) find(match func(*models.Meeting) bool) (*models.Meeting, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, m := range f.w.meetings {
		if match(m) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeMeetings) FindByID(_ context.Context, id string) (*models.Meeting, error) {
	return f.find(func(m *models.Meeting) bool { return m.ID == id })
}

func (f *fakeMeetings) FindBySlug(_ context.Context, slug string) (*models.Meeting, error) {
	return f.find(func(m *models.Meeting) bool { return m.ShareSlug == slug })
}

func (f *fakeMeetings) List(_ context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Meeting
	for _, m := range f.w.meetings {
		if filter.OrganizerID != "" && m.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeMeetings) transition(id string, mutate func(*models.Meeting)) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	m, ok := f.w.meetings[id]
	if !ok || !m.Status.Open() {
		return sql.ErrNoRows
	}
	mutate(m)
	return nil
}

func (f *fakeMeetings) UpdateStatus(_ context.Context, id string, status models.MeetingStatus) error {
	return f.transition(id, func(m *models.Meeting) { m.Status = status })
}

func (f *fakeMeetings) SetLocation(_ context.Context, id, locationID string, status models.MeetingStatus) error {
	return f.transition(id, func(m *models.Meeting) {
		m.LocationID = &locationID
		m.Status = status
	})
}

func (f *fakeMeetings) Confirm(_ context.Context, id string, params repository.ConfirmParams) error {
	if f.w.confirmErr != nil {
		return f.w.confirmErr
	}
	return f.transition(id, func(m *models.Meeting) {
		m.Status = models.MeetingStatusConfirmed
		m.ConfirmedWindowID = &params.WindowID
		m.ConfirmedDate = &params.Date
		m.ConfirmedStart = &params.Start
		m.ConfirmedEnd = &params.End
		f.w.confirmed = &params
	})
}

type fakeWindows struct{ w *meetingWorld }

func (f *fakeWindows) ListByMeeting(_ context.Context, meetingID string) ([]models.TimeWindow, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.TimeWindow
	for _, win := range f.w.windows {
		if win.MeetingID == meetingID {
			out = append(out, win)
		}
	}
	return out, nil
}

func (f *fakeWindows) FindByID(_ context.Context, meetingID, id string) (*models.TimeWindow, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, win := range f.w.windows {
		if win.MeetingID == meetingID && win.ID == id {
			cp := win
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeWindows) Create(_ context.Context, window *models.TimeWindow) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	window.ID = f.w.nextID("w")
	f.w.windows = append(f.w.windows, *window)
	return nil
}

func (f *fakeWindows) Delete(_ context.Context, meetingID, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for i, win := range f.w.windows {
		if win.MeetingID == meetingID && win.ID == id {
			f.w.windows = append(f.w.windows[:i], f.w.windows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeInvitees struct{ w *meetingWorld }

func (f *fakeInvitees) ListByMeeting(_ context.Context, meetingID string) ([]models.Invitee, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Invitee
	for _, inv := range f.w.invitees {
		if inv.MeetingID == meetingID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitees) FindByName(_ context.Context, meetingID, name string) (*models.Invitee, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, inv := range f.w.invitees {
		if inv.MeetingID == meetingID && strings.EqualFold(inv.Name, name) {
			cp := inv
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeResponses struct{ w *meetingWorld }

func (f *fakeResponses) Upsert(_ context.Context, resp *models.Response) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	key := repository.ResponderKey(resp.ResponderName)
	for i, existing := range f.w.responses {
		if existing.WindowID == resp.WindowID && repository.ResponderKey(existing.ResponderName) == key {
			resp.ID = existing.ID
			f.w.responses[i] = *resp
			return nil
		}
	}
	resp.ID = f.w.nextID("r")
	f.w.responses = append(f.w.responses, *resp)
	return nil
}

func (f *fakeResponses) ListByMeeting(_ context.Context, meetingID string) ([]models.Response, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Response
	for _, r := range f.w.responses {
		if r.MeetingID == meetingID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResponses) ListByWindow(_ context.Context, windowID string) ([]models.Response, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Response
	for _, r := range f.w.responses {
		if r.WindowID == windowID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResponses) Delete(_ context.Context, windowID, responder string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	key := repository.ResponderKey(responder)
	for i, r := range f.w.responses {
		if r.WindowID == windowID && repository.ResponderKey(r.ResponderName) == key {
			f.w.responses = append(f.w.responses[:i], f.w.responses[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeLocations struct{ w *meetingWorld }

func (f *fakeLocations) Create(_ context.Context, s *models.LocationSuggestion) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, existing := range f.w.locations {
		if existing.MeetingID == s.MeetingID && repository.ResponderKey(existing.Name) == repository.ResponderKey(s.Name) {
			return repository.ErrDuplicate
		}
	}
	s.ID = f.w.nextID("l")
	f.w.locations = append(f.w.locations, *s)
	return nil
}

func (f *fakeLocations) FindByID(_ context.Context, meetingID, id string) (*models.LocationSuggestion, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, l := range f.w.locations {
		if l.MeetingID == meetingID && l.ID == id {
			cp := l
			cp.Votes = len(f.w.votes[l.ID])
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLocations) ListByMeeting(_ context.Context, meetingID string) ([]models.LocationSuggestion, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.LocationSuggestion
	for _, l := range f.w.locations {
		if l.MeetingID == meetingID {
			l.Votes = len(f.w.votes[l.ID])
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Votes > out[j].Votes })
	return out, nil
}

func (f *fakeLocations) AddVote(_ context.Context, suggestionID, voter string) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.w.votes[suggestionID] == nil {
		f.w.votes[suggestionID] = map[string]bool{}
	}
	key := repository.ResponderKey(voter)
	if f.w.votes[suggestionID][key] {
		return false, nil
	}
	f.w.votes[suggestionID][key] = true
	return true, nil
}

func strPtr(s string) *string { return &s }

func sqlNoRows() error { return sql.ErrNoRows }
