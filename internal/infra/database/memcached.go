package database

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

func NewMemcached(server string) *memcache.Client {
	return memcache.New(server)
}

// PingMemcached fails when no server answers.
func PingMemcached(mc *memcache.Client) error {
	err := mc.Ping()
	if err != nil {
		return errors.Wrap(err, "ping memcached")
	}
	return nil
}
