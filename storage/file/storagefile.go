/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package file deals with low level file storage.

StorageFile

StorageFile models a single storage file which is accessed by byte offset.
The file provides read and write functions for unsigned and signed 32 bit
integers and raw byte ranges. All multi-byte values are stored in big-endian
byte order. Writes past the current end of the file grow the file
automatically.
*/
package file

import (
	"errors"
	"io"
	"os"
)

/*
Size constants for typed access
*/
const (
	SizeUnsignedInt = 4
	SizeInt         = 4
)

/*
ErrShortRead is returned if a read request could not be fully served. This
usually indicates a truncated or corrupted storage file.
*/
var ErrShortRead = errors.New("Short read from storage file")

/*
StorageFile data structure
*/
type StorageFile struct {
	name string   // Name of the storage file
	file *os.File // Underlying file handle
}

/*
NewStorageFile opens a given storage file. A non-existing file is created.
The second return value indicates if the file was newly created - in this
case the caller is expected to seed the file header.
*/
func NewStorageFile(name string) (*StorageFile, bool, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return nil, false, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}

	return &StorageFile{name, f}, info.Size() == 0, nil
}

/*
Name returns the name of this storage file.
*/
func (sf *StorageFile) Name() string {
	return sf.name
}

/*
Size returns the current size of this storage file.
*/
func (sf *StorageFile) Size() (uint64, error) {
	info, err := sf.file.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

/*
ReadBytes reads a given number of bytes at a given offset. A read beyond the
end of the file returns ErrShortRead.
*/
func (sf *StorageFile) ReadBytes(off uint64, size int) ([]byte, error) {
	buf := make([]byte, size)

	n, err := sf.file.ReadAt(buf, int64(off))

	if n < size {
		if err == io.EOF || err == nil {
			return nil, ErrShortRead
		}
		return nil, err
	}

	return buf, nil
}

/*
WriteBytes writes the given bytes at a given offset. The file grows
automatically if the write is beyond its current end.
*/
func (sf *StorageFile) WriteBytes(off uint64, data []byte) error {
	_, err := sf.file.WriteAt(data, int64(off))
	return err
}

/*
ReadUInt32 reads a 32-bit unsigned integer at a given offset.
*/
func (sf *StorageFile) ReadUInt32(off uint64) (uint32, error) {
	buf, err := sf.ReadBytes(off, SizeUnsignedInt)
	if err != nil {
		return 0, err
	}

	return (uint32(buf[0]) << 24) |
		(uint32(buf[1]) << 16) |
		(uint32(buf[2]) << 8) |
		(uint32(buf[3]) << 0), nil
}

/*
WriteUInt32 writes a 32-bit unsigned integer at a given offset.
*/
func (sf *StorageFile) WriteUInt32(off uint64, value uint32) error {
	return sf.WriteBytes(off, []byte{
		byte(value >> 24),
		byte(value >> 16),
		byte(value >> 8),
		byte(value >> 0),
	})
}

/*
ReadInt32 reads a 32-bit signed integer at a given offset.
*/
func (sf *StorageFile) ReadInt32(off uint64) (int32, error) {
	v, err := sf.ReadUInt32(off)
	return int32(v), err
}

/*
WriteInt32 writes a 32-bit signed integer at a given offset.
*/
func (sf *StorageFile) WriteInt32(off uint64, value int32) error {
	return sf.WriteUInt32(off, uint32(value))
}

/*
Flush writes all pending changes of this storage file to disk.
*/
func (sf *StorageFile) Flush() error {
	return sf.file.Sync()
}

/*
Close flushes and closes this storage file.
*/
func (sf *StorageFile) Close() error {
	if err := sf.file.Sync(); err != nil {
		sf.file.Close()
		return err
	}
	return sf.file.Close()
}
