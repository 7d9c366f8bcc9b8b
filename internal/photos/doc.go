// Package photos reads and writes photo metadata through exiftool: GPS
// coordinates and capture time feed observation submission, and chosen
// species keywords are written back into the file's keyword list.
package photos
