package membership

import (
	"errors"
	"fmt"

	"github.com/gigboard/gigboard-api/internal/domain/user"
)

var (
	ErrUnknownPlan         = errors.New("unknown membership plan")
	ErrUnknownPack         = errors.New("unknown credit pack")
	ErrPostingLimitReached = errors.New("monthly full-time posting limit reached")
)

// LimitError carries upgrade information for the client
type LimitError struct {
	Err       error
	Current   int
	Limit     int
	Tier      user.Tier
	UpgradeTo user.Tier
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%v (%d/%d on %s)", e.Err, e.Current, e.Limit, e.Tier)
}

func (e *LimitError) Unwrap() error {
	return e.Err
}
