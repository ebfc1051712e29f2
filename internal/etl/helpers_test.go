package etl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

// logJSONPaths maps the camelCase event log keys onto staging_events columns.
const logJSONPaths = `{"jsonpaths": [
  "$['artist']", "$['auth']", "$['firstName']", "$['gender']", "$['itemInSession']",
  "$['lastName']", "$['length']", "$['level']", "$['location']", "$['method']",
  "$['page']", "$['registration']", "$['sessionId']", "$['song']", "$['status']",
  "$['ts']", "$['userAgent']", "$['userId']"
]}`

type event map[string]any

type song map[string]any

// nextSong builds a NextSong event for userID at ts.
func nextSong(ts int64, userID, level, title, artist string) event {
	return event{
		"artist": artist, "auth": "Logged In", "firstName": "Ann", "gender": "F",
		"itemInSession": 0, "lastName": "Lee", "length": 200.5, "level": level,
		"location": "Portland-South Portland, ME", "method": "PUT", "page": "NextSong",
		"registration": 1540344794796.0, "sessionId": 139, "song": title, "status": 200,
		"ts": ts, "userAgent": "Mozilla/5.0", "userId": userID,
	}
}

// pageView builds a non-play event.
func pageView(ts int64, userID, page string) event {
	return event{
		"artist": nil, "auth": "Logged In", "firstName": "Ann", "gender": "F",
		"itemInSession": 1, "lastName": "Lee", "length": nil, "level": "free",
		"location": "Portland-South Portland, ME", "method": "GET", "page": page,
		"registration": 1540344794796.0, "sessionId": 139, "song": nil, "status": 200,
		"ts": ts, "userAgent": "Mozilla/5.0", "userId": userID,
	}
}

func catalogSong(songID, title, artistID, artistName string) song {
	return song{
		"num_songs": 1, "artist_id": artistID, "artist_latitude": nil, "artist_longitude": nil,
		"artist_location": "", "artist_name": artistName, "song_id": songID, "title": title,
		"duration": 152.92036, "year": 2004,
	}
}

// writeSources lays out events as one newline-delimited log file and each song
// as its own file, the way the raw buckets are organised.
func writeSources(t *testing.T, events []event, songs []song) Sources {
	t.Helper()
	dir := t.TempDir()

	logDir := filepath.Join(dir, "log_data", "2018", "11")
	require.NoError(t, os.MkdirAll(logDir, 0755))
	var lines []string
	for _, e := range events {
		b, err := json.Marshal(e)
		require.NoError(t, err)
		lines = append(lines, string(b))
	}
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "2018-11-13-events.json"), []byte(strings.Join(lines, "\n")), 0644))

	songDir := filepath.Join(dir, "song_data", "A", "A")
	require.NoError(t, os.MkdirAll(songDir, 0755))
	for i, s := range songs {
		b, err := json.Marshal(s)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(songDir, fmt.Sprintf("TRAAA%03d.json", i)), b, 0644))
	}

	jsonPaths := filepath.Join(dir, "log_json_path.json")
	require.NoError(t, os.WriteFile(jsonPaths, []byte(logJSONPaths), 0644))

	return Sources{
		LogData:     filepath.Join(dir, "log_data"),
		SongData:    filepath.Join(dir, "song_data"),
		LogJSONPath: jsonPaths,
	}
}
