// Package transcript defines the translation result shapes shared by the
// translation client and the history store.
//
// Field names on the wire and in persisted history follow the service's JSON
// (camelCase, aiResponse.china / pinyin / vietnamese). A Result is eligible
// for history only when its AI response triple is complete.
package transcript
