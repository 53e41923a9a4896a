// Musi backup client.
//
// Musi has no public API; the app restores libraries from backups created
// by POSTing a multipart form to feelthemusi.com. The payload layout and
// the iOS client's user agent and boundary format are reproduced here.
package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hexiro/spotify-to-musi/internal/models"
)

const (
	defaultMusiBaseURL = "https://feelthemusi.com"
	musiUserAgent      = "Musi/25691 CFNetwork/1206 Darwin/20.1.0"
	musiLibraryName    = "My Library"
)

// MusiItem is one playlist or library entry, referencing a video by id.
type MusiItem struct {
	CD      int64  `json:"cd"`
	Pos     int    `json:"pos"`
	VideoID string `json:"video_id"`
}

// MusiLibrary is the backup's library section.
type MusiLibrary struct {
	OT    string     `json:"ot"`
	Items []MusiItem `json:"items"`
	Name  string     `json:"name"`
	Date  int64      `json:"date"`
}

// MusiPlaylist is one playlist in the backup.
type MusiPlaylist struct {
	OT    string     `json:"ot"`
	Items []MusiItem `json:"items"`
	Name  string     `json:"name"`
	Type  string     `json:"type"`
	Date  int64      `json:"date"`
	CIU   string     `json:"ciu,omitempty"`
}

// MusiVideo is the video metadata shared by every item that references it.
type MusiVideo struct {
	CreatedDate   float64 `json:"created_date"`
	VideoDuration int     `json:"video_duration"`
	VideoName     string  `json:"video_name"`
	VideoCreator  string  `json:"video_creator"`
	VideoID       string  `json:"video_id"`
}

// MusiBackupPayload is the full backup document sent to Musi.
type MusiBackupPayload struct {
	Library       MusiLibrary    `json:"library"`
	PlaylistItems []MusiVideo    `json:"playlist_items"`
	Playlists     []MusiPlaylist `json:"playlists"`
}

// MusiBackup is Musi's response to a backup upload. Code is what the user
// enters in the app to restore.
type MusiBackup struct {
	Code    string `json:"code"`
	Diff    bool   `json:"diff"`
	Success string `json:"success"`
}

// MusiService uploads resolved libraries to Musi's backup endpoint.
type MusiService struct {
	baseURL    string
	httpClient *http.Client

	now func() time.Time
}

// NewMusiService creates a Musi backup client.
func NewMusiService() *MusiService {
	return &MusiService{
		baseURL:    defaultMusiBaseURL,
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
}

func (m *MusiService) Name() string {
	return "Musi"
}

// BuildBackup converts the resolved library and playlists into Musi's
// backup document. Video metadata is deduplicated by video id, so a track
// appearing in the library and several playlists is described once.
func (m *MusiService) BuildBackup(library []models.ResolvedTrack, playlists []models.ResolvedPlaylist) *MusiBackupPayload {
	now := m.now()
	date := now.Unix()
	createdDate := float64(now.UnixNano()) / float64(time.Second)

	var videos []MusiVideo
	seen := make(map[string]bool)

	collect := func(track models.ResolvedTrack) {
		if seen[track.VideoID] {
			return
		}
		seen[track.VideoID] = true
		videos = append(videos, MusiVideo{
			CreatedDate:   createdDate,
			VideoDuration: track.YouTubeDuration,
			VideoName:     track.Name,
			VideoCreator:  string(track.Artists[0]),
			VideoID:       track.VideoID,
		})
	}

	items := func(tracks []models.ResolvedTrack) []MusiItem {
		result := make([]MusiItem, len(tracks))
		for i, track := range tracks {
			collect(track)
			result[i] = MusiItem{CD: date, Pos: i, VideoID: track.VideoID}
		}
		return result
	}

	payload := &MusiBackupPayload{
		Library: MusiLibrary{
			OT:    "custom",
			Items: items(library),
			Name:  musiLibraryName,
			Date:  date,
		},
	}

	for _, playlist := range playlists {
		payload.Playlists = append(payload.Playlists, MusiPlaylist{
			OT:    "custom",
			Items: items(playlist.Tracks),
			Name:  playlist.Name,
			Type:  "user",
			Date:  date,
			CIU:   playlist.CoverImageURL,
		})
	}

	payload.PlaylistItems = videos
	return payload
}

// musiVideoIdentity is a MusiVideo without its creation timestamp, used to
// derive a deterministic backup uuid.
type musiVideoIdentity struct {
	VideoID       string `json:"video_id"`
	VideoName     string `json:"video_name"`
	VideoCreator  string `json:"video_creator"`
	VideoDuration int    `json:"video_duration"`
}

// backupUUID derives a stable uuid from the backup's video set, so the same
// library uploads under the same identity.
func backupUUID(videos []MusiVideo) uuid.UUID {
	identities := make([]musiVideoIdentity, len(videos))
	for i, video := range videos {
		identities[i] = musiVideoIdentity{
			VideoID:       video.VideoID,
			VideoName:     video.VideoName,
			VideoCreator:  video.VideoCreator,
			VideoDuration: video.VideoDuration,
		}
	}

	sort.SliceStable(identities, func(i, j int) bool {
		return identities[i].VideoCreator < identities[j].VideoCreator
	})

	encoded, err := json.Marshal(identities)
	if err != nil {
		encoded = nil
	}

	digest := md5.Sum(encoded)
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(hex.EncodeToString(digest[:])))
}

// Upload sends the backup to Musi and returns the restore code.
//
// The endpoint expects a multipart form with a nonstandard boundary of the
// form "Boundary+Musi<uuid>", which the standard multipart writer rejects,
// so the body is assembled by hand.
func (m *MusiService) Upload(ctx context.Context, payload *MusiBackupPayload) (*MusiBackup, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup payload: %w", err)
	}

	backupID := backupUUID(payload.PlaylistItems)
	boundary := fmt.Sprintf("Boundary+Musi%s", backupID)

	var body bytes.Buffer
	fmt.Fprintf(&body, "--%s\n", boundary)
	body.WriteString("Content-Disposition: form-data; name=\"data\"\n\n")
	body.Write(data)
	fmt.Fprintf(&body, "\n--%s\n", boundary)
	body.WriteString("Content-Disposition: form-data; name=\"uuid\"\n\n")
	body.WriteString(backupID.String())
	fmt.Fprintf(&body, "\n--%s--\n", boundary)

	apiURL := m.baseURL + "/api/v4/backups/create"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Content-Type", fmt.Sprintf("multipart/form-data; boundary=%s;", boundary))
	req.Header.Set("User-Agent", musiUserAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	var backup MusiBackup
	if err := json.Unmarshal(raw, &backup); err != nil || backup.Code == "" {
		return nil, fmt.Errorf("unexpected upload response (status %d): %s", resp.StatusCode, raw)
	}

	return &backup, nil
}
