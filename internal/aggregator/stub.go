package aggregator

import (
	"context"
	"errors"
)

// StubClient serves scripted change pages in order; tests use it to drive
// sync without the real aggregator.
type StubClient struct {
	Pages       []*ChangeSet
	FailOnCall  int // 1-based call number that should fail; 0 never fails
	Calls       int
	SeenCursors []string
}

func (s *StubClient) FetchChanges(_ context.Context, _ string, cursor string) (*ChangeSet, error) {
	s.Calls++
	s.SeenCursors = append(s.SeenCursors, cursor)
	if s.FailOnCall != 0 && s.Calls == s.FailOnCall {
		return nil, errors.New("stubbed aggregator outage")
	}
	if len(s.Pages) == 0 {
		return &ChangeSet{NextCursor: cursor}, nil
	}
	page := s.Pages[0]
	s.Pages = s.Pages[1:]
	return page, nil
}

func (s *StubClient) CreateLinkToken(_ context.Context, _ string) (*LinkToken, error) {
	return &LinkToken{Token: "stub-link-token"}, nil
}

func (s *StubClient) ExchangePublicToken(_ context.Context, _ string) (string, error) {
	return "stub-item-id", nil
}
