// Package api exposes the marketplace over HTTP. Callers identify
// themselves with the X-Muse-Caller header carrying their hex address;
// payments ride in the request body and are validated by the engine.
package api

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muse-dev/muse-market/internal/market"
	"github.com/muse-dev/muse-market/pkg/codec"
)

// CallerHeader names the header carrying the caller's hex address.
const CallerHeader = "X-Muse-Caller"

type Handler struct {
	Market *market.Market
	Log    *zap.Logger
}

// Routes registers all marketplace endpoints on the router.
func (h *Handler) Routes(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/stats", h.GetStats)
	api.POST("/assets", h.MintNFT)
	api.POST("/assets/batch", h.MintBatch)
	api.POST("/rwa", h.MintRWA)

	asset := api.Group("/assets/:id")
	asset.GET("", h.GetAsset)
	asset.GET("/royalty", h.GetRoyalty)
	asset.GET("/auction", h.GetAuction)
	asset.GET("/cocreators", h.GetCoCreators)
	asset.GET("/rwa", h.GetRWA)
	asset.GET("/preview", h.GetSplitPreview)

	asset.POST("/buy", h.Buy)
	asset.POST("/buyout", h.BuyOutRoyalty)
	asset.POST("/price", h.Relist)
	asset.POST("/royalty", h.UpdateRoyalty)
	asset.POST("/auction", h.StartAuction)
	asset.POST("/bids", h.PlaceBid)
	asset.POST("/settle", h.SettleAuction)
	asset.POST("/cocreators", h.RegisterCoCreators)
	asset.POST("/cocreators/accept", h.AcceptCollaboration)
	asset.POST("/validate", h.ValidatePhysicalAsset)
	asset.POST("/redeem", h.RedeemPhysicalAsset)
}

// statusFor maps engine error categories to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, market.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, market.ErrPaymentMismatch):
		return http.StatusPaymentRequired
	case errors.Is(err, market.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, market.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func caller(c *gin.Context) (codec.Address, bool) {
	addr, err := codec.ParseAddress(c.GetHeader(CallerHeader))
	if err != nil || addr.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid " + CallerHeader + " header"})
		return codec.ZeroAddress, false
	}
	return addr, true
}

func assetID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset id"})
		return 0, false
	}
	return id, true
}

type mintRequest struct {
	Name         string `json:"name" binding:"required"`
	UnitName     string `json:"unit_name" binding:"required"`
	MetadataURL  string `json:"metadata_url"`
	MetadataHash string `json:"metadata_hash"`
	Price        uint64 `json:"price"`
	RoyaltyBPS   uint64 `json:"royalty_bps"`
	FloorBPS     uint64 `json:"floor_bps"`
	DecayAfter   uint64 `json:"decay_after"`
	BuyoutPrice  uint64 `json:"buyout_price"`
}

func (r *mintRequest) params() (market.MintParams, error) {
	p := market.MintParams{
		Name:        r.Name,
		UnitName:    r.UnitName,
		MetadataURL: r.MetadataURL,
		Price:       r.Price,
		RoyaltyBPS:  r.RoyaltyBPS,
		FloorBPS:    r.FloorBPS,
		DecayAfter:  r.DecayAfter,
		BuyoutPrice: r.BuyoutPrice,
	}
	if r.MetadataHash != "" {
		raw, err := hex.DecodeString(r.MetadataHash)
		if err != nil || len(raw) != 32 {
			return p, errors.New("metadata_hash must be 32 bytes of hex")
		}
		copy(p.MetadataHash[:], raw)
	}
	return p, nil
}

func (h *Handler) MintNFT(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := req.params()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, effects, err := h.Market.MintNFT(from, p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset_id": id, "effects": effects})
}

func (h *Handler) MintBatch(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		mintRequest
		Count int `json:"count" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := req.params()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids, effects, err := h.Market.MintBatch(from, req.Count, p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset_ids": ids, "effects": effects})
}

func (h *Handler) MintRWA(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		mintRequest
		PhysicalHash  string        `json:"physical_hash" binding:"required"`
		Custodian     codec.Address `json:"custodian" binding:"required"`
		Authenticator codec.Address `json:"authenticator" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	base, err := req.params()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := market.RWAParams{
		MintParams:    base,
		Custodian:     req.Custodian,
		Authenticator: req.Authenticator,
	}
	raw, err := hex.DecodeString(req.PhysicalHash)
	if err != nil || len(raw) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "physical_hash must be 32 bytes of hex"})
		return
	}
	copy(p.PhysicalHash[:], raw)

	id, effects, err := h.Market.MintRWA(from, p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset_id": id, "effects": effects})
}

func (h *Handler) GetAsset(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	a, err := h.Market.NFTInfo(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asset_id":     a.AssetID,
		"price":        a.Price,
		"royalty_bps":  a.RoyaltyBPS,
		"floor_bps":    a.FloorBPS,
		"decay_start":  a.DecayStart,
		"buyout_price": a.BuyoutPrice,
		"transfers":    a.Transfers,
		"flags":        uint64(a.Flags),
		"creator":      a.Creator,
	})
}

func (h *Handler) GetRoyalty(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	bps, err := h.Market.CurrentRoyalty(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "royalty_bps": bps})
}

func (h *Handler) GetAuction(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	auc, err := h.Market.AuctionInfo(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asset_id":       auc.AssetID,
		"end_round":      auc.EndRound,
		"highest_bid":    auc.HighestBid,
		"highest_bidder": auc.HighestBidder,
		"seller":         auc.Seller,
		"reserve_price":  auc.ReservePrice,
	})
}

func (h *Handler) GetCoCreators(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	split, err := h.Market.SplitInfo(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "slots": split.Slots})
}

func (h *Handler) GetRWA(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	rwa, err := h.Market.RWAInfo(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asset_id":         id,
		"physical_hash":    hex.EncodeToString(rwa.PhysicalHash[:]),
		"custodian":        rwa.Custodian,
		"authenticator":    rwa.Authenticator,
		"redemption_round": rwa.RedemptionRound,
		"tracking_memo":    string(rwa.TrackingMemo),
	})
}

func (h *Handler) GetSplitPreview(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	price, err := strconv.ParseUint(c.Query("price"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price query parameter required"})
		return
	}
	bd, err := h.Market.SplitPreview(id, price)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bd)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.Market.PlatformStats()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_volume":         stats.TotalVolume,
		"total_royalties_paid": stats.TotalRoyaltiesPaid,
		"nft_count":            stats.NFTCount,
		"live_auctions":        stats.LiveAuctions,
	})
}

type paymentRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}

func (h *Handler) Buy(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	effects, bd, err := h.Market.Buy(from, id, market.Payment{From: from, Amount: req.Amount})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"breakdown": bd, "effects": effects})
}

func (h *Handler) BuyOutRoyalty(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	effects, err := h.Market.BuyOutRoyalty(from, id, market.Payment{From: from, Amount: req.Amount})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"effects": effects})
}

func (h *Handler) Relist(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		Price uint64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Market.Relist(from, id, req.Price); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) UpdateRoyalty(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		RoyaltyBPS uint64 `json:"royalty_bps"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Market.UpdateRoyalty(from, id, req.RoyaltyBPS); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) StartAuction(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		DurationRounds uint64 `json:"duration_rounds" binding:"required"`
		ReservePrice   uint64 `json:"reserve_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	effects, err := h.Market.StartAuction(from, id, req.DurationRounds, req.ReservePrice)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"effects": effects})
}

func (h *Handler) PlaceBid(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	effects, err := h.Market.PlaceBid(from, id, market.Payment{From: from, Amount: req.Amount})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"effects": effects})
}

func (h *Handler) SettleAuction(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	effects, err := h.Market.SettleAuction(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"effects": effects})
}

func (h *Handler) RegisterCoCreators(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		Entries []market.SplitEntry `json:"entries" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Market.RegisterCoCreators(from, id, req.Entries); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) AcceptCollaboration(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	slot, err := h.Market.AcceptCollaboration(from, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "slot": slot})
}

func (h *Handler) ValidatePhysicalAsset(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	effects, err := h.Market.ValidatePhysicalAsset(from, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"effects": effects})
}

func (h *Handler) RedeemPhysicalAsset(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		TrackingMemo string `json:"tracking_memo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	effects, err := h.Market.RedeemPhysicalAsset(from, id, req.TrackingMemo)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"effects": effects})
}
