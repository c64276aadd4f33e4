package indicator

import (
	"time"

	"go.uber.org/zap"

	"alertbadge-go/errcode"
	"alertbadge-go/x/timex"
)

// Wiper erases the persisted profile.
type Wiper interface {
	Wipe() error
}

// FactoryReset lights the LED, wipes the profile, waits settle, turns the
// LED off and asks for a restart by returning errcode.Restart. When the wipe
// cannot be committed no restart is requested; the store error is returned
// so the caller can stay in provisioning.
func FactoryReset(led LED, store Wiper, clock timex.Clock, settle time.Duration, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log.Warn("factory_reset")
	led.Set(true)
	err := store.Wipe()
	if err != nil {
		log.Error("factory_reset_wipe_failed", zap.Error(err))
	}
	clock.Sleep(settle)
	led.Set(false)
	if err != nil {
		return err
	}
	return errcode.Restart
}
