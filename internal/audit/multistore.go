package audit

import (
	"context"

	"go.uber.org/multierr"
)

// MultiStore saves to every store and reports all failures together.
type MultiStore []Store

func (m MultiStore) Save(ctx context.Context, b Bundle) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Save(ctx, b))
	}
	return err
}
