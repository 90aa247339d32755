// Package config loads the presence host configuration.
//
// A config is a YAML file decoded over defaults, overridden by PRESENCE_*
// environment variables (the process environment wins over a .env file
// beside the config), and validated against an embedded CUE schema:
//
//	identifier: 1234567890
//	show_time: true
//	tick_interval: 500ms
//	journal: presence.db
//	activity:
//	  state: In the menus
//	  buttons:
//	    - label: Website
//	      url: https://example.com
//
// Watch reloads the file on change so a running host can re-apply the
// activity block to its snapshot.
package config
