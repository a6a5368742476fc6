package codec

import (
	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// ProtocolVersion is the version of the plan wire format written by this build.
const ProtocolVersion = "1.0.0"

// DefaultAcceptedVersions accepts any frame written by a compatible 1.x release.
const DefaultAcceptedVersions = "~1"

var frameMagic = [2]byte{0xd1, 0x5c}

// Frame is a versioned envelope around an encoded body.
//
// Format: magic (2 bytes), protocol version (string), body (rest of the input).
type Frame struct {
	Version *semver.Version
	Body    []byte
}

// WriteFrame wraps body in a frame carrying version.
func WriteFrame(version *semver.Version, body []byte) []byte {
	enc := NewEncoder()
	enc.PutBytes(frameMagic[:])
	enc.PutStr(version.String())
	enc.PutBytes(body)
	return enc.Bytes()
}

// ReadFrame parses a frame and checks its version against accepted.
// The returned body aliases data.
func ReadFrame(data []byte, accepted *semver.Constraints) (Frame, error) {
	dec := NewDecoder(data)
	magic := dec.Bytes(len(frameMagic))
	rawVersion := dec.Str()
	if err := dec.Err(); err != nil {
		return Frame{}, errors.Wrap(err, "couldn't read frame header")
	}
	if magic[0] != frameMagic[0] || magic[1] != frameMagic[1] {
		return Frame{}, errors.Wrapf(ErrMalformedInput, "invalid frame magic %#x", magic)
	}

	version, err := semver.NewVersion(rawVersion)
	if err != nil {
		return Frame{}, errors.Wrapf(ErrMalformedInput, "invalid frame version '%s': %s", rawVersion, err)
	}
	if accepted != nil && !accepted.Check(version) {
		return Frame{}, errors.Wrapf(ErrVersionMismatch, "frame version %s not accepted by %v", version, accepted)
	}

	return Frame{
		Version: version,
		Body:    dec.Bytes(dec.Len()),
	}, nil
}

// MustCurrentVersion returns ProtocolVersion parsed.
func MustCurrentVersion() *semver.Version {
	return semver.MustParse(ProtocolVersion)
}
