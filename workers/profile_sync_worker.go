// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"match-settlement-system/models"
	"match-settlement-system/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteProfile matches the JSON the profile service returns for one user.
type RemoteProfile struct {
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the profile
// service response.
type GetProfileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// ProfileSyncWorker mirrors display name and avatar from the profile
// service into player_profiles. It never touches gold_balance — that column
// is owned by the settlement transaction.
type ProfileSyncWorker struct {
	db           *gorm.DB
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
	scheduler    gocron.Scheduler
}

func NewProfileSyncWorker(db *gorm.DB, profileServiceBaseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		baseURL:      profileServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

// Start runs an initial backfill and then schedules incremental syncs every
// minute until ctx is canceled.
func (w *ProfileSyncWorker) Start(ctx context.Context) error {
	log.Println("🔁 Starting Profile Sync Worker (profile-service → player_profiles)…")

	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial profile sync failed: %v", err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	w.scheduler = sched

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			since := w.getLastSyncTime()
			if err := w.syncBatch(ctx, since); err != nil {
				log.Printf("❌ Profile sync batch failed: %v", err)
			}
		}),
	)
	if err != nil {
		return err
	}
	sched.Start()

	go func() {
		<-ctx.Done()
		_ = sched.Shutdown()
		log.Println("⏹️ Profile Sync Worker stopped")
	}()
	return nil
}

// getLastSyncTime finds the most recent UpdatedAt from player_profiles.
func (w *ProfileSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM player_profiles WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches profile changes since the given time and upserts the
// local mirror's display fields.
func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid profile service URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("profile service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode profile service response: %w", err)
	}

	if len(response.Users) == 0 {
		return nil
	}

	var upsertCount, errorCount int
	for _, remote := range response.Users {
		profile := models.PlayerProfile{
			ID:       uuid.NewString(),
			UserID:   remote.ExternalID,
			Username: remote.Username,
		}
		if remote.ProfilePictureURL != nil {
			profile.AvatarURL = *remote.ProfilePictureURL
		}

		// gold_balance deliberately excluded from the update set.
		if err := w.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "avatar_url", "updated_at"}),
		}).Create(&profile).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert player_profile (user_id=%q): %v", remote.ExternalID, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d profile(s) (%d upserted, %d errors) since %s",
		len(response.Users), upsertCount, errorCount, sinceStr)
	return nil
}
