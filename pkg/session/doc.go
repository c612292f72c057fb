/*
Package session implements session management and persistence orchestration.

The Manager is the only path to a session's state record. It serializes access per
session ID with reference-counted in-process mutexes, optionally combined with a
distributed lock, so that read-modify-write cycles (and whole conversation turns run
through WithLock) never interleave for the same session.

A session that has never been written reads as domain.NewState().
*/
package session
