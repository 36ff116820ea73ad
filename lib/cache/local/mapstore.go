package local

import (
	"sync"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
)

func New() Client {
	return &local{
		store: make(map[string]*termite.EntityDetails),
		mut:   &sync.RWMutex{},
	}
}

type Client interface {
	Get(key string) (*termite.EntityDetails, error)
	Set(key string, details *termite.EntityDetails) error
	Delete(key string)
}

type local struct {
	store map[string]*termite.EntityDetails
	mut   *sync.RWMutex
}

func (l *local) Get(key string) (*termite.EntityDetails, error) {
	l.mut.RLock()
	defer l.mut.RUnlock()

	details, ok := l.store[key]
	if !ok {
		return nil, nil
	}

	return details, nil
}

func (l *local) Set(key string, details *termite.EntityDetails) error {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.store[key] = details
	return nil
}

func (l *local) Delete(key string) {
	l.mut.Lock()
	defer l.mut.Unlock()

	delete(l.store, key)
}
