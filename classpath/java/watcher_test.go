package java

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_InvalidatesChangedUnits(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "org/example/A.java", "package org.example;\nclass A { void one() {} }\n")

	l, err := NewSourceLoader(LoaderConfig{Roots: []string{root}})
	require.NoError(t, err)

	_, err = l.LoadClass("org.example.A")
	require.NoError(t, err)

	w, err := NewWatcher(WatcherConfig{Loader: l, DebounceDelay: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeSource(t, root, "org/example/A.java", "package org.example;\nclass A { void one() {} void two() {} }\n")

	timeout := time.After(5 * time.Second)
	for invalidated := false; !invalidated; {
		select {
		case ev, ok := <-w.Events():
			require.True(t, ok, "events channel closed early")
			if ev.Path == path && ev.Invalidated {
				invalidated = true
			}
		case <-timeout:
			t.Fatal("timed out waiting for invalidation")
		}
	}

	assert.Eventually(t, func() bool {
		// A partially written file may be parsed once; later events drop it.
		c, err := l.LoadClass("org.example.A")
		return err == nil && len(c.DeclaredMethods("two")) == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_StopClosesEvents(t *testing.T) {
	l, err := NewSourceLoader(LoaderConfig{Roots: []string{t.TempDir()}})
	require.NoError(t, err)

	w, err := NewWatcher(WatcherConfig{Loader: l})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestWatcher_WatchesBuildOutputNamedPackages(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "com/acme/build/A.java", "package com.acme.build;\nclass A { void one() {} }\n")

	l, err := NewSourceLoader(LoaderConfig{Roots: []string{root}})
	require.NoError(t, err)

	c, err := l.LoadClass("com.acme.build.A")
	require.NoError(t, err)
	assert.Empty(t, c.DeclaredMethods("two"))

	w, err := NewWatcher(WatcherConfig{Loader: l, DebounceDelay: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeSource(t, root, "com/acme/build/A.java", "package com.acme.build;\nclass A { void one() {} void two() {} }\n")

	timeout := time.After(5 * time.Second)
	for invalidated := false; !invalidated; {
		select {
		case ev, ok := <-w.Events():
			require.True(t, ok, "events channel closed early")
			if ev.Path == path && ev.Invalidated {
				invalidated = true
			}
		case <-timeout:
			t.Fatal("timed out waiting for invalidation")
		}
	}

	assert.Eventually(t, func() bool {
		c, err := l.LoadClass("com.acme.build.A")
		return err == nil && len(c.DeclaredMethods("two")) == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSkipDir(t *testing.T) {
	assert.True(t, skipDir(".git"))
	assert.True(t, skipDir(".idea"))
	for _, name := range []string{"build", "target", "out", "node_modules", "example"} {
		assert.False(t, skipDir(name), name)
	}
}
