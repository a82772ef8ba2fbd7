// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// handleCompression compresses responses with gzip or deflate if the client accepts it
func (b *Backend) handleCompression() {
	b.router.Use(mux.MiddlewareFunc(handlers.CompressHandler))
}
