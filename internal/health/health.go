package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type monitorStatus struct {
	LastTick time.Time `json:"last_tick"`
	Wallets  int       `json:"wallets"`
}

var (
	isReady     int32
	status      monitorStatus
	statusMutex sync.RWMutex
)

func SetReady(ready bool) {
	if ready {
		atomic.StoreInt32(&isReady, 1)
	} else {
		atomic.StoreInt32(&isReady, 0)
	}
}

// RecordTick marks a completed monitor tick. The service reports ready
// once the first tick has finished.
func RecordTick(wallets int) {
	statusMutex.Lock()
	status = monitorStatus{LastTick: time.Now().UTC(), Wallets: wallets}
	statusMutex.Unlock()
	SetReady(true)
}

func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	statusMutex.RLock()
	defer statusMutex.RUnlock()

	if atomic.LoadInt32(&isReady) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready"))

		return
	}

	response := map[string]interface{}{
		"status":  "Ready",
		"monitor": status,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
