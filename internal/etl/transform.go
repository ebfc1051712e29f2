package etl

import (
	"fmt"

	"github.com/sells-group/songplay-dwh/internal/stmt"
	"github.com/sells-group/songplay-dwh/internal/warehouse"
)

// epochToTimestamp converts an epoch-millisecond column to a timestamp. The
// division is integer division, so sub-second precision is dropped.
func epochToTimestamp(d warehouse.Dialect, col string) string {
	if d == warehouse.SQLite {
		return fmt.Sprintf("datetime(%s / 1000, 'unixepoch')", col)
	}
	return fmt.Sprintf("TIMESTAMP 'epoch' + %s / 1000 * INTERVAL '1 second'", col)
}

// calendarParts returns the hour, day, week, month, year and weekday
// expressions for a timestamp column. Weekday is the day name blank-padded to
// nine characters.
func calendarParts(d warehouse.Dialect, col string) [6]string {
	if d == warehouse.SQLite {
		part := func(f string) string {
			return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", f, col)
		}
		weekday := fmt.Sprintf(`CASE strftime('%%w', %s)
               WHEN '0' THEN 'Sunday   '
               WHEN '1' THEN 'Monday   '
               WHEN '2' THEN 'Tuesday  '
               WHEN '3' THEN 'Wednesday'
               WHEN '4' THEN 'Thursday '
               WHEN '5' THEN 'Friday   '
               ELSE 'Saturday '
           END`, col)
		return [6]string{part("%H"), part("%d"), part("%V"), part("%m"), part("%Y"), weekday}
	}
	part := func(f string) string {
		return fmt.Sprintf("EXTRACT(%s FROM %s)", f, col)
	}
	return [6]string{
		part("HOUR"), part("DAY"), part("WEEK"), part("MONTH"), part("YEAR"),
		fmt.Sprintf("to_char(%s, 'Day')", col),
	}
}

// SongplayInsertSQL joins NextSong events to the song catalog on exact title
// and artist name. Plays without a catalog match are dropped.
func SongplayInsertSQL(d warehouse.Dialect) string {
	return fmt.Sprintf(`INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
SELECT DISTINCT %s AS start_time,
       se.user_id,
       se.level,
       ss.song_id,
       ss.artist_id,
       se.session_id,
       se.location,
       se.user_agent
FROM staging_events se
JOIN staging_songs ss ON (se.song = ss.title AND se.artist = ss.artist_name)
WHERE se.page = 'NextSong';`, epochToTimestamp(d, "se.ts"))
}

// UserInsertSQL keeps one row per user: the attributes of their latest play,
// so a user who upgraded from free to paid lands with level 'paid'.
func UserInsertSQL(warehouse.Dialect) string {
	return `INSERT INTO users (user_id, first_name, last_name, gender, level)
SELECT DISTINCT user_id, first_name, last_name, gender, level
FROM (
    SELECT user_id, first_name, last_name, gender, level,
           ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY ts DESC, level DESC) AS rn
    FROM staging_events
    WHERE user_id IS NOT NULL
      AND page = 'NextSong'
) AS latest
WHERE rn = 1;`
}

// SongInsertSQL keeps one row per song_id.
func SongInsertSQL(warehouse.Dialect) string {
	return `INSERT INTO songs (song_id, title, artist_id, year, duration)
SELECT DISTINCT song_id, title, artist_id, year, duration
FROM (
    SELECT song_id, title, artist_id, year, duration,
           ROW_NUMBER() OVER (PARTITION BY song_id ORDER BY title, artist_id, year, duration) AS rn
    FROM staging_songs
    WHERE song_id IS NOT NULL
) AS ranked
WHERE rn = 1;`
}

// ArtistInsertSQL keeps one row per artist_id.
//
// The filter is on song_id, not artist_id: an artist only appears when one of
// their catalog rows has a song_id. Kept as the warehouse has always loaded it.
func ArtistInsertSQL(warehouse.Dialect) string {
	return `INSERT INTO artists (artist_id, name, location, latitude, longitude)
SELECT DISTINCT artist_id, artist_name, artist_location, artist_latitude, artist_longitude
FROM (
    SELECT artist_id, artist_name, artist_location, artist_latitude, artist_longitude,
           ROW_NUMBER() OVER (PARTITION BY artist_id ORDER BY artist_name, artist_location, artist_latitude, artist_longitude) AS rn
    FROM staging_songs
    WHERE song_id IS NOT NULL
) AS ranked
WHERE rn = 1;`
}

// TimeInsertSQL decomposes every distinct NextSong event timestamp. It reads
// staging_events directly, so plays dropped by the songplays join still get a
// time row.
func TimeInsertSQL(d warehouse.Dialect) string {
	p := calendarParts(d, "start_time")
	return fmt.Sprintf(`INSERT INTO time (start_time, hour, day, week, month, year, weekday)
SELECT start_time,
       %s AS hour,
       %s AS day,
       %s AS week,
       %s AS month,
       %s AS year,
       %s AS weekday
FROM (
    SELECT DISTINCT %s AS start_time
    FROM staging_events
    WHERE ts IS NOT NULL
      AND page = 'NextSong'
) AS event_times;`, p[0], p[1], p[2], p[3], p[4], p[5], epochToTimestamp(d, "ts"))
}

// TransformStatements renders the five inserts in their fixed order:
// songplays, users, songs, artists, time. Each reads only staging tables.
func TransformStatements(d warehouse.Dialect) []stmt.Statement {
	return []stmt.Statement{
		{Name: "songplays", Phase: stmt.PhaseTransform, SQL: SongplayInsertSQL(d)},
		{Name: "users", Phase: stmt.PhaseTransform, SQL: UserInsertSQL(d)},
		{Name: "songs", Phase: stmt.PhaseTransform, SQL: SongInsertSQL(d)},
		{Name: "artists", Phase: stmt.PhaseTransform, SQL: ArtistInsertSQL(d)},
		{Name: "time", Phase: stmt.PhaseTransform, SQL: TimeInsertSQL(d)},
	}
}
