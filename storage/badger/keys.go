package badger

import (
	"encoding/binary"

	"github.com/brightpath/coursemem/core"
)

// Key prefixes for different data types
const (
	embeddingRecordPrefix = "embrec"
	lessonIndexPrefix     = "embrecl"
)

// makeCourseRecordPrefix generates the key prefix for all records of a course.
// Format: prefix:course
func makeCourseRecordPrefix(course core.CourseID) []byte {
	prefix := embeddingRecordPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(course))
	return buf
}

// makeEmbeddingRecordKey generates a key for an embedding record.
// Format: prefix:course:id
func makeEmbeddingRecordKey(course core.CourseID, id core.ID) []byte {
	coursePrefix := makeCourseRecordPrefix(course)
	buf := make([]byte, len(coursePrefix)+8)
	offset := copy(buf, coursePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCourseLessonPrefix generates the lesson index prefix for a course.
// Format: prefix:course
func makeCourseLessonPrefix(course core.CourseID) []byte {
	prefix := lessonIndexPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(course))
	return buf
}

// makeLessonPrefix generates the lesson index prefix for a lesson within a
// course. The lesson name is terminated with a zero byte so one lesson name
// being a prefix of another cannot cross-match.
// Format: prefix:course:lesson\x00
func makeLessonPrefix(course core.CourseID, lesson string) []byte {
	coursePrefix := makeCourseLessonPrefix(course)
	buf := make([]byte, len(coursePrefix)+len(lesson)+1)
	offset := copy(buf, coursePrefix)
	offset += copy(buf[offset:], lesson)
	buf[offset] = 0x00
	return buf
}

// makeLessonIndexKey generates a composite key for the lesson index.
// Format: prefix:course:lesson\x00:id
func makeLessonIndexKey(course core.CourseID, lesson string, id core.ID) []byte {
	lessonPrefix := makeLessonPrefix(course, lesson)
	buf := make([]byte, len(lessonPrefix)+8)
	offset := copy(buf, lessonPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
