package seeder

import (
	"context"
	"fmt"

	"github.com/telhawk-systems/telhawk-wodles/common/messaging"
)

// Publish sends payloads to subject in order and returns how many were
// accepted before the first failure.
func Publish(ctx context.Context, pub messaging.Publisher, subject string, payloads []string) (int, error) {
	for i, p := range payloads {
		if err := pub.Publish(ctx, subject, []byte(p)); err != nil {
			return i, fmt.Errorf("publish payload %d: %w", i, err)
		}
	}
	return len(payloads), nil
}
