package history

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"minty/internal/erasure/models"
	id "minty/pkg/domain"
)

type HistorySuite struct {
	suite.Suite
	store *Store
}

func TestHistorySuite(t *testing.T) {
	suite.Run(t, new(HistorySuite))
}

func (s *HistorySuite) SetupTest() {
	s.store = New()
}

func sealed(userID id.UserID) models.DeletionResult {
	result := models.NewDeletionResult(userID, "", time.Now())
	result.Seal(time.Now())
	return *result
}

func (s *HistorySuite) TestAppendAndQuery() {
	first := sealed(id.UserID(uuid.New()))
	second := sealed(id.UserID(uuid.New()))
	s.store.Append(first)
	s.store.Append(second)

	s.Run("list preserves run order", func() {
		results := s.store.List()
		s.Require().Len(results, 2)
		s.Equal(first.ID, results[0].ID)
		s.Equal(second.ID, results[1].ID)
	})

	s.Run("find by ID", func() {
		found, ok := s.store.FindByID(second.ID)
		s.Require().True(ok)
		s.Equal(second.UserID, found.UserID)
	})

	s.Run("unknown ID is not found", func() {
		_, ok := s.store.FindByID(id.NewDeletionID())
		s.False(ok)
	})
}

func (s *HistorySuite) TestListReturnsCopy() {
	s.store.Append(sealed(id.UserID(uuid.New())))

	results := s.store.List()
	results[0].Errors = append(results[0].Errors, "mutated")

	fresh := s.store.List()
	s.Empty(fresh[0].Errors, "mutation of a returned slice must not reach history")
}

func (s *HistorySuite) TestConcurrentAppends() {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.store.Append(sealed(id.UserID(uuid.New())))
		}()
	}
	wg.Wait()
	s.Equal(50, s.store.Len())
}
