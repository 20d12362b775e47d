package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"judgement/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// BotIdentity is one entry of the bot pool file.
type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy", "medium", "hard"
	AvatarIndex int    `json:"avatar_index"`
}

var (
	botPool       []BotIdentity
	botByUserID   map[string]BotIdentity
	poolMu        sync.RWMutex
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// LoadIdentities loads the bot pool from path. Only the first call reads the file.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		var pool []BotIdentity
		if err := json.Unmarshal(data, &pool); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}

		poolMu.Lock()
		defer poolMu.Unlock()
		botPool = pool
		botByUserID = make(map[string]BotIdentity, len(pool))
		for _, identity := range pool {
			if identity.UserID != "" {
				botByUserID[identity.UserID] = identity
			}
		}
	})
	return loadErr
}

// ProvisionBots creates or refreshes the pool's device accounts and tags them as bots.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) {
	provisionOnce.Do(func() {
		poolMu.Lock()
		defer poolMu.Unlock()
		for i := range botPool {
			identity := &botPool[i]
			if identity.DeviceID == "" {
				continue
			}

			userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if err != nil {
				logger.Error("ProvisionBots: failed to authenticate bot %s: %v", identity.Username, err)
				continue
			}
			identity.UserID = userID
			identity.Username = username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"game":         domain.GameName,
				"difficulty":   identity.Difficulty,
				"avatar_index": identity.AvatarIndex,
			}
			if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
				logger.Warn("ProvisionBots: failed to update bot account %s: %v", userID, err)
			}
			botByUserID[userID] = *identity

			logger.Info("ProvisionBots: bot %s (%s) ready, difficulty %s", identity.DisplayName, userID, identity.Difficulty)
		}
	})
}

// GetBotConfig returns the identity for a bot user id.
func GetBotConfig(userID string) (BotIdentity, bool) {
	poolMu.RLock()
	defer poolMu.RUnlock()
	identity, ok := botByUserID[userID]
	return identity, ok
}

// GetBotDisplayName returns the display name for a bot, falling back to its username.
// It is empty for non-bots.
func GetBotDisplayName(userID string) string {
	identity, ok := GetBotConfig(userID)
	if !ok {
		return ""
	}
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	return identity.Username
}

// IsBot reports whether the given user ID belongs to the bot pool.
func IsBot(userID string) bool {
	_, ok := GetBotConfig(userID)
	return ok
}

// AllBotIDs returns the provisioned bot user ids in a stable order.
func AllBotIDs() []string {
	poolMu.RLock()
	defer poolMu.RUnlock()
	ids := make([]string, 0, len(botByUserID))
	for id := range botByUserID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PickBots returns up to n pool bots that are not already in taken.
func PickBots(taken []string, n int) []string {
	seated := make(map[string]bool, len(taken))
	for _, id := range taken {
		seated[id] = true
	}
	var out []string
	for _, id := range AllBotIDs() {
		if len(out) == n {
			break
		}
		if !seated[id] {
			out = append(out, id)
		}
	}
	return out
}
