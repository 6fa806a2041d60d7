// Package di contains dependency injection tokens for the mempool context.
package di

import (
	mempoolApp "github.com/flasharb/flasharb-bot/business/mempool/app"
	"github.com/flasharb/flasharb-bot/internal/di"
)

// DI tokens for the mempool module.
const (
	Observer = "mempool.Observer"
)

// GetObserver resolves the mempool observer, nil when the push
// transport is not configured.
func GetObserver(r di.ServiceRegistry) *mempoolApp.Observer {
	svc := r.Get(Observer)
	if svc == nil {
		return nil
	}
	return svc.(*mempoolApp.Observer)
}
