// Package manifest reads mbedjs.json, the file whose presence marks an
// installed npm package as contributing native source to the firmware.
//
// Only the "source" list is interpreted. Every other field is kept verbatim
// for the code generation templates.
package manifest
