package sandbox

import (
	"slices"
	"sync"

	"github.com/jonathan/ipp-client/internal/types"
)

// jobRecord is an analysis plus what the scripted run needs to finish it.
type jobRecord struct {
	job      types.AnalysisJob
	userID   int64
	kind     types.AnalysisKind
	resumeID int64
	jobDocID int64
	step     int // index into types.ProgressSteps, -1 while pending
}

type docRecord struct {
	doc    types.Document
	userID int64
}

type questionnaireRecord struct {
	q types.BackgroundQuestionnaire
}

// store is the sandbox's in-memory database. Ids are shared across tables so
// they are unique process-wide.
type store struct {
	mu             sync.Mutex
	nextID         int64
	users          map[string]*types.User // by email
	usersByID      map[int64]*types.User
	docs           map[int64]*docRecord
	jobs           map[int64]*jobRecord
	questionnaires map[int64]*questionnaireRecord
}

func newStore() *store {
	return &store{
		users:          make(map[string]*types.User),
		usersByID:      make(map[int64]*types.User),
		docs:           make(map[int64]*docRecord),
		jobs:           make(map[int64]*jobRecord),
		questionnaires: make(map[int64]*questionnaireRecord),
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

// upsertUser returns the user for id.Email, creating it on first sign-in, and
// stamps the login time.
func (s *store) upsertUser(id identity, now types.Timestamp) *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id.Email]
	if !ok {
		u = &types.User{ID: s.id(), Email: id.Email, Name: id.Name, CreatedAt: now}
		s.users[u.Email] = u
		s.usersByID[u.ID] = u
	}
	login := now
	u.LastLogin = &login
	cp := *u
	return &cp
}

func (s *store) touchLogin(userID int64, now types.Timestamp) *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[userID]
	if !ok {
		return nil
	}
	login := now
	u.LastLogin = &login
	cp := *u
	return &cp
}

func (s *store) userByID(id int64) *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (s *store) addDocument(userID int64, d types.Document) types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.id()
	s.docs[d.ID] = &docRecord{doc: d, userID: userID}
	return d
}

// documents returns the user's documents in upload order.
func (s *store) documents(userID int64) []types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.Document{}
	for _, rec := range s.docs {
		if rec.userID == userID {
			out = append(out, rec.doc)
		}
	}
	slices.SortFunc(out, func(a, b types.Document) int { return int(a.ID - b.ID) })
	return out
}

func (s *store) document(userID, id int64) (types.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentLocked(userID, id)
}

// documentLocked is document for callers already holding mu.
func (s *store) documentLocked(userID, id int64) (types.Document, bool) {
	rec, ok := s.docs[id]
	if !ok || rec.userID != userID {
		return types.Document{}, false
	}
	return rec.doc, true
}

func (s *store) deleteDocument(userID, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok || rec.userID != userID {
		return false
	}
	delete(s.docs, id)
	return true
}

func (s *store) addJob(rec *jobRecord) types.AnalysisJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.job.ID = s.id()
	s.jobs[rec.job.ID] = rec
	return rec.job
}

// withJob runs fn on the user's job under the store lock.
func (s *store) withJob(userID, id int64, fn func(*jobRecord)) (types.AnalysisJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok || rec.userID != userID {
		return types.AnalysisJob{}, false
	}
	if fn != nil {
		fn(rec)
	}
	return rec.job, true
}

// jobsFor returns the user's analyses, newest first.
func (s *store) jobsFor(userID int64) []types.AnalysisJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.AnalysisJob{}
	for _, rec := range s.jobs {
		if rec.userID == userID {
			out = append(out, rec.job)
		}
	}
	slices.SortFunc(out, func(a, b types.AnalysisJob) int { return int(b.ID - a.ID) })
	return out
}

// latestQuestionnaire returns the user's newest questionnaire.
func (s *store) latestQuestionnaire(userID int64) (types.BackgroundQuestionnaire, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *questionnaireRecord
	for _, rec := range s.questionnaires {
		if rec.q.UserID == userID && (latest == nil || rec.q.ID > latest.q.ID) {
			latest = rec
		}
	}
	if latest == nil {
		return types.BackgroundQuestionnaire{}, false
	}
	return latest.q, true
}

// createQuestionnaire stores sub, or overwrites the user's completed
// questionnaire when one exists.
func (s *store) createQuestionnaire(userID int64, sub types.QuestionnaireSubmission, now types.Timestamp) types.BackgroundQuestionnaire {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.questionnaires {
		if rec.q.UserID == userID && rec.q.CompletedAt != nil {
			apply(&rec.q, sub, now)
			return rec.q
		}
	}

	rec := &questionnaireRecord{q: types.BackgroundQuestionnaire{
		ID:        s.id(),
		UserID:    userID,
		CreatedAt: now,
	}}
	apply(&rec.q, sub, now)
	s.questionnaires[rec.q.ID] = rec
	return rec.q
}

func (s *store) updateQuestionnaire(userID, id int64, sub types.QuestionnaireSubmission, now types.Timestamp) (types.BackgroundQuestionnaire, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.questionnaires[id]
	if !ok || rec.q.UserID != userID {
		return types.BackgroundQuestionnaire{}, false
	}
	apply(&rec.q, sub, now)
	return rec.q, true
}

func apply(q *types.BackgroundQuestionnaire, sub types.QuestionnaireSubmission, now types.Timestamp) {
	q.Responses = sub.Responses.Clone()
	q.UpdatedAt = now
	if sub.IsComplete {
		done := now
		q.CompletedAt = &done
	}
}
