package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"clickboard/internal/model"
	"clickboard/pkg/store/mysql"
	mysqlModel "clickboard/pkg/store/mysql/model"
)

type memCharacters struct {
	mu    sync.Mutex
	rows  map[string]*mysqlModel.Character
	order []string
	lists int
}

func newMemCharacters(cs ...*mysqlModel.Character) *memCharacters {
	m := &memCharacters{rows: make(map[string]*mysqlModel.Character)}
	for _, c := range cs {
		m.rows[c.ID] = c
		m.order = append(m.order, c.ID)
	}
	return m
}

func (m *memCharacters) ListCharacters(ctx context.Context) ([]*mysqlModel.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := make([]*mysqlModel.Character, 0, len(m.order))
	for _, id := range m.order {
		c := *m.rows[id]
		out = append(out, &c)
	}
	return out, nil
}

func (m *memCharacters) GetCharacter(ctx context.Context, id string) (*mysqlModel.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, mysql.ErrCharacterNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCharacters) CreateCharacter(ctx context.Context, c *mysqlModel.Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = "generated-id"
	}
	m.rows[c.ID] = c
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memCharacters) AddCharacterTotals(ctx context.Context, id string, plus, minus, net int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return mysql.ErrCharacterNotFound
	}
	c.TotalPlus += plus
	c.TotalMinus += minus
	c.TotalPoints += net
	return nil
}

func (m *memCharacters) TopCharacters(ctx context.Context, limit int) ([]*mysqlModel.Character, error) {
	all, _ := m.ListCharacters(ctx)
	sort.SliceStable(all, func(i, j int) bool { return all[i].TotalPoints > all[j].TotalPoints })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type historyKey struct {
	session, character, code string
	day                      time.Time
}

type memPoints struct {
	mu      sync.Mutex
	rows    map[historyKey]*mysqlModel.PointsHistory
	upserts int
	failOn  string
	daily   []model.PointsRow
	country []model.PointsRow
	since   time.Time
}

func newMemPoints() *memPoints {
	return &memPoints{rows: make(map[historyKey]*mysqlModel.PointsHistory)}
}

func (m *memPoints) UpsertDailyPoints(ctx context.Context, row *mysqlModel.PointsHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if row.CharacterID == m.failOn {
		return errors.New("lock wait timeout")
	}
	key := historyKey{row.SessionID, row.CharacterID, row.CountryCode, mysql.DayOf(row.Day)}
	existing, ok := m.rows[key]
	if !ok {
		cp := *row
		m.rows[key] = &cp
		return nil
	}
	existing.TotalPlus += row.TotalPlus
	existing.TotalMinus += row.TotalMinus
	existing.PointsChange += row.PointsChange
	return nil
}

func (m *memPoints) DailyPoints(ctx context.Context, since time.Time, limit int) ([]model.PointsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since = since
	return m.daily, nil
}

func (m *memPoints) OverallPoints(ctx context.Context, limit int) ([]model.PointsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := make(map[string]*model.PointsRow)
	var ids []string
	for _, r := range m.rows {
		t, ok := totals[r.CharacterID]
		if !ok {
			t = &model.PointsRow{CharacterID: r.CharacterID}
			totals[r.CharacterID] = t
			ids = append(ids, r.CharacterID)
		}
		t.TotalPoints += r.PointsChange
		t.TotalPlus += r.TotalPlus
		t.TotalMinus += r.TotalMinus
	}
	sort.Strings(ids)
	var out []model.PointsRow
	for _, id := range ids {
		out = append(out, *totals[id])
	}
	return out, nil
}

func (m *memPoints) CountryPoints(ctx context.Context, limit int) ([]model.PointsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.country, nil
}

func (m *memPoints) SessionPoints(ctx context.Context, characterID, sessionID string) (*model.PointsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out *model.PointsRow
	for k, r := range m.rows {
		if k.character != characterID || k.session != sessionID {
			continue
		}
		if out == nil {
			out = &model.PointsRow{CharacterID: characterID}
		}
		out.TotalPoints += r.PointsChange
		out.TotalPlus += r.TotalPlus
		out.TotalMinus += r.TotalMinus
	}
	return out, nil
}

func (m *memPoints) SessionTotalsSince(ctx context.Context, sessionID string, since time.Time) (map[string]model.PointsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.PointsRow)
	for k, r := range m.rows {
		if k.session != sessionID {
			continue
		}
		t := out[k.character]
		t.CharacterID = k.character
		t.TotalPoints += r.PointsChange
		t.TotalPlus += r.TotalPlus
		t.TotalMinus += r.TotalMinus
		out[k.character] = t
	}
	return out, nil
}

func (m *memPoints) TotalPoints(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, r := range m.rows {
		total += int64(r.PointsChange)
	}
	return total, nil
}

// inlineTx runs fn directly; rollback is not modelled.
type inlineTx struct{ calls int }

func (t *inlineTx) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type memCache struct {
	characters  []*model.CharacterSummary
	boards      map[string][]model.PointsRow
	invalidated int
}

func (c *memCache) GetCharacters(ctx context.Context) ([]*model.CharacterSummary, bool, error) {
	return c.characters, c.characters != nil, nil
}

func (c *memCache) SetCharacters(ctx context.Context, characters []*model.CharacterSummary) error {
	c.characters = characters
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, boardTypes ...string) error {
	c.invalidated++
	c.characters = nil
	for _, t := range boardTypes {
		delete(c.boards, t)
	}
	return nil
}

func (c *memCache) GetLeaderboard(ctx context.Context, boardType string) ([]model.PointsRow, bool, error) {
	rows, ok := c.boards[boardType]
	return rows, ok, nil
}

func (c *memCache) SetLeaderboard(ctx context.Context, boardType string, rows []model.PointsRow) error {
	if c.boards == nil {
		c.boards = make(map[string][]model.PointsRow)
	}
	c.boards[boardType] = rows
	return nil
}

type sent struct {
	session string
	event   string
	payload interface{}
}

type recordingHub struct {
	mu   sync.Mutex
	sent []sent
}

func (h *recordingHub) Broadcast(event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, sent{event: event, payload: payload})
}

func (h *recordingHub) BroadcastToSession(sessionID, event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, sent{session: sessionID, event: event, payload: payload})
}

func (h *recordingHub) events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.sent))
	for _, s := range h.sent {
		out = append(out, s.event)
	}
	return out
}
