package tasks

import (
	"math"
	"strings"

	"github.com/hexiro/spotify-to-musi/internal/models"
	"github.com/hexiro/spotify-to-musi/internal/services"
	"github.com/hexiro/spotify-to-musi/internal/shared"
)

// Score rates how well a search result matches a source track. Signals are
// purely additive; no single signal vetoes a match short of the final
// threshold. Song results also receive album and explicitness signals, so
// with equal metadata a Song outranks a Video.
func Score(result services.Result, track models.Track) float64 {
	info := result.Info()

	score := titleScore(track.Name, info.Title)
	score += artistsScore(track.Artists, info.Artists)
	score += durationScore(track.Duration, info.Duration)

	if song, ok := result.(services.Song); ok {
		score += albumScore(track.AlbumName, song.AlbumName)
		score += explicitScore(track.IsExplicit, song.IsExplicit)
	}

	return score
}

// titleScore compares titles stripped of decoration. Result titles often
// embed the uploader, like "Summrs - Back 2 Da Basic [prod. twunuzis]", so
// the result side additionally drops a leading "Artist - " prefix.
func titleScore(trackTitle, resultTitle string) float64 {
	trackTitle = normalizeTitleForScore(trackTitle)

	if _, after, found := strings.Cut(resultTitle, " - "); found {
		resultTitle = after
	}
	resultTitle = normalizeTitleForScore(resultTitle)

	if trackTitle == resultTitle {
		return 1
	}
	if strings.Contains(resultTitle, trackTitle) || strings.Contains(trackTitle, resultTitle) {
		return 0.75
	}
	return 0
}

func normalizeTitleForScore(title string) string {
	title = strings.ToLower(title)
	title = shared.RemoveBracketed(title)
	title = shared.RemoveFeaturing(title)
	return strings.TrimSpace(title)
}

// artistsScore compares lowercased artist name lists. Identical sequences
// score full; any shared name in either direction scores partial.
func artistsScore(trackArtists, resultArtists []models.Artist) float64 {
	trackNames := lowerNames(trackArtists)
	resultNames := lowerNames(resultArtists)

	if len(trackNames) == len(resultNames) {
		equal := true
		for i := range trackNames {
			if trackNames[i] != resultNames[i] {
				equal = false
				break
			}
		}
		if equal && len(trackNames) > 0 {
			return 1
		}
	}

	resultSet := make(map[string]bool, len(resultNames))
	for _, name := range resultNames {
		resultSet[name] = true
	}

	for _, name := range trackNames {
		if resultSet[name] {
			return 0.75
		}
	}

	return 0
}

func lowerNames(artists []models.Artist) []string {
	names := make([]string, len(artists))
	for i, artist := range artists {
		names[i] = strings.ToLower(string(artist))
	}
	return names
}

// durationScore forgives a 1-second difference entirely, falls off steeply
// over the next ten seconds, and turns into a penalty past that. The
// penalty is capped at -1 and is the dominant disqualifier for wildly
// mismatched lengths.
func durationScore(trackDuration, resultDuration int) float64 {
	diff := trackDuration - resultDuration
	if diff < 0 {
		diff = -diff
	}
	if diff > 0 {
		diff--
	}

	if diff == 0 {
		return 1
	}
	if diff <= 10 {
		return round2(1 / float64(diff))
	}

	return math.Max(-1, -(round2(float64(diff)/10) - 1))
}

// albumScore compares album names for Song results. A missing album on
// either side carries no signal.
func albumScore(trackAlbum, resultAlbum string) float64 {
	if trackAlbum == "" || resultAlbum == "" {
		return 0
	}

	trackAlbum = strings.TrimSpace(shared.RemoveBracketed(strings.ToLower(trackAlbum)))
	resultAlbum = strings.TrimSpace(shared.RemoveBracketed(strings.ToLower(resultAlbum)))

	if trackAlbum == resultAlbum {
		return 1
	}
	if strings.Contains(resultAlbum, trackAlbum) || strings.Contains(trackAlbum, resultAlbum) {
		return 0.75
	}
	return 0
}

func explicitScore(trackExplicit, resultExplicit bool) float64 {
	if trackExplicit == resultExplicit {
		return 1
	}
	return 0
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
