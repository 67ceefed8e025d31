// Package session keeps the backend's session cookie between runs of the
// client, the way a browser keeps it between page loads.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pixelfit/pixelfit/internal/db"
)

// Jar is an http.CookieJar that mirrors every accepted cookie into SQLite.
type Jar struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
	db  *db.DB
	now func() time.Time
}

// NewJar creates a jar and restores the unexpired cookies stored in database.
func NewJar(ctx context.Context, database *db.DB) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	j := &Jar{jar: inner, db: database, now: time.Now}
	if err := j.restore(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) restore(ctx context.Context) error {
	rows, err := j.db.QueryContext(ctx, `
		SELECT host, name, value, path, domain, expires, secure, http_only, same_site
		FROM cookies`)
	if err != nil {
		return fmt.Errorf("loading cookies: %w", err)
	}
	defer rows.Close()

	now := j.now()
	for rows.Next() {
		var (
			host     string
			c        http.Cookie
			expires  sql.NullTime
			sameSite int
		)
		if err := rows.Scan(&host, &c.Name, &c.Value, &c.Path, &c.Domain, &expires, &c.Secure, &c.HttpOnly, &sameSite); err != nil {
			return fmt.Errorf("scanning cookie: %w", err)
		}
		if expires.Valid {
			if !expires.Time.After(now) {
				continue
			}
			c.Expires = expires.Time
		}
		c.SameSite = http.SameSite(sameSite)

		scheme := "http"
		if c.Secure {
			scheme = "https"
		}
		j.jar.SetCookies(&url.URL{Scheme: scheme, Host: host, Path: c.Path}, []*http.Cookie{&c})
	}
	return rows.Err()
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	ctx := context.Background()
	for _, c := range cookies {
		path := c.Path
		if path == "" || path[0] != '/' {
			path = defaultPath(u.Path)
		}
		if !j.expired(c) && !j.accepted(u, c, path) {
			slog.Debug("session: cookie rejected", "name", c.Name)
			continue
		}
		if err := j.persist(ctx, u.Hostname(), path, c); err != nil {
			slog.Warn("session: cookie not persisted", "name", c.Name, "error", err)
		}
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// defaultPath is the cookie path used when Set-Cookie has none (RFC 6265
// section 5.1.4).
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func (j *Jar) expired(c *http.Cookie) bool {
	return c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(j.now()))
}

// accepted reports whether the in-memory jar kept c.
func (j *Jar) accepted(u *url.URL, c *http.Cookie, path string) bool {
	scheme := u.Scheme
	if c.Secure {
		scheme = "https"
	}
	for _, got := range j.jar.Cookies(&url.URL{Scheme: scheme, Host: u.Host, Path: path}) {
		if got.Name == c.Name && got.Value == c.Value {
			return true
		}
	}
	return false
}

func (j *Jar) persist(ctx context.Context, host, path string, c *http.Cookie) error {
	if j.expired(c) {
		_, err := j.db.ExecContext(ctx,
			`DELETE FROM cookies WHERE host = ? AND name = ? AND path = ?`, host, c.Name, path)
		return err
	}

	var expires sql.NullTime
	switch {
	case c.MaxAge > 0:
		expires = sql.NullTime{Time: j.now().Add(time.Duration(c.MaxAge) * time.Second).UTC(), Valid: true}
	case !c.Expires.IsZero():
		expires = sql.NullTime{Time: c.Expires.UTC(), Valid: true}
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO cookies (host, name, value, path, domain, expires, secure, http_only, same_site)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(host, name, path) DO UPDATE SET
			value = excluded.value,
			domain = excluded.domain,
			expires = excluded.expires,
			secure = excluded.secure,
			http_only = excluded.http_only,
			same_site = excluded.same_site`,
		host, c.Name, c.Value, path, c.Domain, expires, c.Secure, c.HttpOnly, int(c.SameSite))
	return err
}

// Clear forgets every cookie, in memory and on disk.
func (j *Jar) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	inner, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("creating cookie jar: %w", err)
	}
	j.jar = inner

	if _, err := j.db.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("clearing cookies: %w", err)
	}
	return nil
}

// Count returns the number of stored cookies.
func (j *Jar) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookies`).Scan(&n)
	return n, err
}
