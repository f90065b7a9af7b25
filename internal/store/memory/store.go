// Package memory is an in-process implementation of the store contracts,
// used by tests and by matchctl simulate.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"contractor-matching/internal/models"
	"contractor-matching/internal/store"
)

// Store holds requests, contractors and assignments behind one lock so the
// assignment compare-and-swap is atomic.
type Store struct {
	mu          sync.RWMutex
	requests    map[string]models.ServiceRequest
	contractors map[string]models.Contractor
	assignments map[string]models.Assignment
}

func New() *Store {
	return &Store{
		requests:    make(map[string]models.ServiceRequest),
		contractors: make(map[string]models.Contractor),
		assignments: make(map[string]models.Assignment),
	}
}

// Fixtures is the on-disk shape accepted by LoadFixtures.
type Fixtures struct {
	ServiceRequests []models.ServiceRequest `json:"serviceRequests"`
	Contractors     []models.Contractor     `json:"contractors"`
}

func LoadFixtures(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var f Fixtures
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	s := New()
	for i := range f.ServiceRequests {
		s.PutServiceRequest(&f.ServiceRequests[i])
	}
	for i := range f.Contractors {
		s.PutContractor(&f.Contractors[i])
	}
	return s, nil
}

// PutServiceRequest stores a copy, defaulting the status to pending.
func (s *Store) PutServiceRequest(r *models.ServiceRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	if cp.Status == "" {
		cp.Status = models.RequestPending
	}
	s.requests[cp.ID] = cp
}

func (s *Store) PutContractor(c *models.Contractor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contractors[c.ID] = *c
}

func (s *Store) GetServiceRequest(ctx context.Context, id string) (*models.ServiceRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) GetContractor(ctx context.Context, id string) (*models.Contractor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contractors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

// ListContractors applies the structural gates; distance is left to the
// caller.
func (s *Store) ListContractors(ctx context.Context, q models.ContractorQuery) ([]*models.Contractor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Contractor, 0, len(s.contractors))
	for _, c := range s.contractors {
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if q.BackgroundCheck != "" && c.BackgroundCheck != q.BackgroundCheck {
			continue
		}
		if q.Insurance != "" && c.Insurance != q.Insurance {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetActiveAssignment(ctx context.Context, requestID string) (*models.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assignments {
		if a.ServiceRequestID == requestID && a.Status == models.AssignmentActive {
			a := a
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

// Assignments returns every assignment for a request, oldest first.
func (s *Store) Assignments(requestID string) []models.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Assignment
	for _, a := range s.assignments {
		if a.ServiceRequestID == requestID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out
}

func (s *Store) CommitAssignment(ctx context.Context, req *models.ServiceRequest, a *models.Assignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requests[req.ID]
	if !ok {
		return store.ErrNotFound
	}
	if current.Status != models.RequestPending || current.StatusVersion != req.StatusVersion {
		return store.ErrStale
	}
	for _, existing := range s.assignments {
		if existing.ServiceRequestID == req.ID && existing.Status == models.AssignmentActive {
			return store.ErrStale
		}
	}

	current.Status = models.RequestAssigned
	current.StatusVersion++
	current.AssignedContractorID = a.ContractorID
	s.requests[req.ID] = current
	s.assignments[a.ID] = *a

	req.Status = current.Status
	req.StatusVersion = current.StatusVersion
	req.AssignedContractorID = current.AssignedContractorID
	return nil
}

func (s *Store) RevokeAssignment(ctx context.Context, req *models.ServiceRequest, a *models.Assignment, r store.Revocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requests[req.ID]
	if !ok {
		return store.ErrNotFound
	}
	stored, ok := s.assignments[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	if current.Status != models.RequestAssigned || current.StatusVersion != req.StatusVersion ||
		stored.Status != models.AssignmentActive {
		return store.ErrStale
	}

	revokedAt := r.RevokedAt
	stored.Status = models.AssignmentRevoked
	stored.RevokedBy = r.RevokedBy
	stored.RevokedAt = &revokedAt
	stored.RevokeReason = r.Reason
	s.assignments[a.ID] = stored

	current.Status = models.RequestPending
	current.StatusVersion++
	current.AssignedContractorID = ""
	s.requests[req.ID] = current

	*a = stored
	req.Status = current.Status
	req.StatusVersion = current.StatusVersion
	req.AssignedContractorID = ""
	return nil
}
