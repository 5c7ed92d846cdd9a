package service

import "errors"

var (
	ErrVersionIsNotSpecified = errors.New("app version is not specified")

	ErrUnknownConnection  = errors.New("connection is not live")
	ErrEmptyUserID        = errors.New("user id is required")
	ErrRecordNotFound     = errors.New("record not found")
	ErrEmptyPairingKey    = errors.New("pairing key is required")
	ErrSystemOffline      = errors.New("sync is offline, refresh manually")
	ErrRecordRolledBack   = errors.New("update was rolled back")
	ErrUnsupportedMessage = errors.New("unsupported client message")
)
