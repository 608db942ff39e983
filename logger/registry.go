package logger

import "sync"

// components holds per-package loggers derived from the global logger.
// Packages that are not handed a logger explicitly fetch theirs with Get.
var components sync.Map // name -> *Logger

// Register stores l under name, replacing any previous entry.
func Register(name string, l *Logger) {
	components.Store(name, l)
}

// Get returns the logger registered under name. Unregistered names get the
// current global logger tagged with the component, and are not cached, so a
// later Init is still picked up.
func Get(name string) *Logger {
	if l, ok := components.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults derives a component logger for each name from the global
// logger. Call after Init and after any global fields such as the run id
// are set.
func RegisterDefaults(names ...string) {
	global := GetGlobalLogger()
	for _, name := range names {
		Register(name, global.WithComponent(name))
	}
}

// Unregister drops the named loggers so Get falls back to the global one.
func Unregister(names ...string) {
	for _, name := range names {
		components.Delete(name)
	}
}
