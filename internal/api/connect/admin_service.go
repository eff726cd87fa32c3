package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/app/session"
)

// AdminService implements the AdminService RPC.
type AdminService struct {
	session *session.Manager
}

// NewAdminService creates a new AdminService.
func NewAdminService(session *session.Manager) *AdminService {
	return &AdminService{session: session}
}

// GetStatus returns the current server status.
func (s *AdminService) GetStatus(
	ctx context.Context,
	req *connect.Request[GetStatusRequest],
) (*connect.Response[GetStatusResponse], error) {
	status := s.session.Status()

	pages := make([]PageInfo, 0, status.Pages)
	for _, p := range s.session.Pages() {
		pages = append(pages, toPageInfo(p))
	}

	return connect.NewResponse(&GetStatusResponse{
		PlaylistName: status.PlaylistName,
		TrackCount:   status.TrackCount,
		Subscribers:  status.Subscribers,
		Pages:        pages,
	}), nil
}

// UnmountAll closes every mounted page.
func (s *AdminService) UnmountAll(
	ctx context.Context,
	req *connect.Request[UnmountAllRequest],
) (*connect.Response[UnmountAllResponse], error) {
	count := 0
	for _, p := range s.session.Pages() {
		if err := s.session.Unmount(p.ID); err != nil {
			// Closed concurrently.
			continue
		}
		count++
	}
	zlog.Info().Msgf("api: unmounted all pages: count=%d", count)

	return connect.NewResponse(&UnmountAllResponse{Unmounted: count}), nil
}

// NewAdminServiceHandler builds an HTTP handler serving every AdminService
// procedure. It returns the path to mount the handler on.
func NewAdminServiceHandler(svc *AdminService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(AdminServiceGetStatusProcedure, connect.NewUnaryHandler(AdminServiceGetStatusProcedure, svc.GetStatus, opts...))
	mux.Handle(AdminServiceUnmountAllProcedure, connect.NewUnaryHandler(AdminServiceUnmountAllProcedure, svc.UnmountAll, opts...))
	return "/" + AdminServiceName + "/", mux
}
