package minio

import (
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"

	pkgerrors "github.com/turtacn/MolSieve/pkg/errors"
)

func (s *ClientTestSuite) TestPut_JSON() {
	data := []byte(`{"id":"r1"}`)
	s.api.On("PutObject", s.ctx, "molsieve-runs", "runs/2024/05/01/r1.json",
		mock.AnythingOfType("*bytes.Reader"), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"}).
		Run(func(args mock.Arguments) {
			body, err := io.ReadAll(args.Get(3).(io.Reader))
			s.NoError(err)
			s.Equal(data, body)
		}).
		Return(minio.UploadInfo{Size: int64(len(data)), ETag: "abc"}, nil).Once()

	s.NoError(s.client.Put(s.ctx, "runs/2024/05/01/r1.json", data, "application/json"))
}

func (s *ClientTestSuite) TestPut_SniffsContentType() {
	data := []byte("plain text body")
	s.api.On("PutObject", s.ctx, "molsieve-runs", "notes.txt", mock.Anything, int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"}).
		Return(minio.UploadInfo{}, nil).Once()

	s.NoError(s.client.Put(s.ctx, "notes.txt", data, ""))
}

func (s *ClientTestSuite) TestPut_Errors() {
	s.ErrorIs(s.client.Put(s.ctx, "", []byte("x"), ""), ErrInvalidRequest)
	s.ErrorIs(s.client.Put(s.ctx, "k", nil, ""), ErrInvalidRequest)

	s.api.On("PutObject", s.ctx, "molsieve-runs", "k", mock.Anything, int64(1), mock.Anything).
		Return(minio.UploadInfo{}, errors.New("503")).Once()
	err := s.client.Put(s.ctx, "k", []byte("x"), "text/plain")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorage))
}

func (s *ClientTestSuite) TestExists() {
	s.api.On("StatObject", s.ctx, "molsieve-runs", "present", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{Key: "present"}, nil).Once()
	ok, err := s.client.Exists(s.ctx, "present")
	s.NoError(err)
	s.True(ok)

	s.api.On("StatObject", s.ctx, "molsieve-runs", "absent", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}).Once()
	ok, err = s.client.Exists(s.ctx, "absent")
	s.NoError(err)
	s.False(ok)

	s.api.On("StatObject", s.ctx, "molsieve-runs", "broken", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, errors.New("timeout")).Once()
	_, err = s.client.Exists(s.ctx, "broken")
	s.Error(err)
}

//Personal.AI order the ending
