package domain

// Standard syslog facility names, as accepted by logger(1) and syslog.conf(5).
var facilityNames = map[string]struct{}{
	"auth": {}, "authpriv": {}, "cron": {}, "daemon": {}, "ftp": {}, "kern": {},
	"lpr": {}, "mail": {}, "mark": {}, "news": {}, "security": {}, "syslog": {},
	"user": {}, "uucp": {},
	"local0": {}, "local1": {}, "local2": {}, "local3": {},
	"local4": {}, "local5": {}, "local6": {}, "local7": {},
}

// Standard syslog priority names, including the deprecated aliases.
var priorityNames = map[string]struct{}{
	"alert": {}, "crit": {}, "debug": {}, "emerg": {}, "err": {}, "error": {},
	"info": {}, "none": {}, "notice": {}, "panic": {}, "warn": {}, "warning": {},
}

// ValidFacility reports whether s is a syslog facility name. Matching is case-sensitive.
func ValidFacility(s string) bool {
	_, ok := facilityNames[s]
	return ok
}

// ValidPriority reports whether s is a syslog priority name. Matching is case-sensitive.
func ValidPriority(s string) bool {
	_, ok := priorityNames[s]
	return ok
}
