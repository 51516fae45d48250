// Package checkpoint persists download-session progress for resuming.
//
// Every save is dual-written: to a cache backend under
// "ymusic:progress:<session>" and to a JSON file mirror, so progress
// survives the loss of either store. A checkpoint carries the md5-derived
// signature of the command that started it; resuming is refused when the
// signature differs, since a changed parameter set changes what "remaining
// work" means.
package checkpoint
