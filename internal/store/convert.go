package store

import (
	"encoding/json"

	"gorm.io/datatypes"

	"fuelcontrol/internal/domain"
)

func driverFromModel(m DriverModel) domain.Driver {
	return domain.Driver{
		ID:             m.ID,
		TelegramUserID: m.TelegramUserID,
		FullName:       m.FullName,
		IsActive:       m.IsActive,
		LastSeenAt:     m.LastSeenAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func vehicleToModel(v domain.Vehicle) VehicleModel {
	return VehicleModel{
		ID:                v.ID,
		Name:              v.Name,
		PlateNumber:       v.PlateNumber,
		IsActive:          v.IsActive,
		CurrentOdometerKm: v.CurrentOdometerKm,
		SortOrder:         v.SortOrder,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

func vehicleFromModel(m VehicleModel) domain.Vehicle {
	return domain.Vehicle{
		ID:                m.ID,
		Name:              m.Name,
		PlateNumber:       m.PlateNumber,
		IsActive:          m.IsActive,
		CurrentOdometerKm: m.CurrentOdometerKm,
		SortOrder:         m.SortOrder,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func receiptToModel(r domain.Receipt) ReceiptModel {
	raw := datatypes.JSON(r.Raw)
	if len(raw) == 0 {
		raw = datatypes.JSON([]byte("{}"))
	}
	return ReceiptModel{
		ID:             r.ID,
		DriverID:       r.DriverID,
		VehicleID:      r.VehicleID,
		ReceiptAt:      r.ReceiptAt,
		Mileage:        r.Mileage,
		StationName:    r.StationName,
		StationINN:     r.StationINN,
		PaymentMethod:  string(r.PaymentMethod),
		PaymentComment: r.PaymentComment,
		Reimbursed:     r.Reimbursed,
		PaidByDriver:   r.PaidByDriver,
		TotalAmount:    r.TotalAmount,
		Liters:         r.Liters,
		PricePerLiter:  r.PricePerLiter,
		FuelType:       r.FuelType,
		FuelGroup:      string(r.FuelGroup),
		HasGoods:       r.HasGoods,
		GoodsAmount:    r.GoodsAmount,
		AddressShort:   r.AddressShort,
		ImagePath:      r.ImagePath,
		PDFPath:        r.PDFPath,
		QRRaw:          r.QRRaw,
		DataSource:     string(r.DataSource),
		Status:         string(r.Status),
		Raw:            raw,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func receiptFromModel(m ReceiptModel) domain.Receipt {
	return domain.Receipt{
		ID:             m.ID,
		DriverID:       m.DriverID,
		VehicleID:      m.VehicleID,
		ReceiptAt:      m.ReceiptAt,
		Mileage:        m.Mileage,
		StationName:    m.StationName,
		StationINN:     m.StationINN,
		PaymentMethod:  domain.PaymentMethod(m.PaymentMethod),
		PaymentComment: m.PaymentComment,
		Reimbursed:     m.Reimbursed,
		PaidByDriver:   m.PaidByDriver,
		TotalAmount:    m.TotalAmount,
		Liters:         m.Liters,
		PricePerLiter:  m.PricePerLiter,
		FuelType:       m.FuelType,
		FuelGroup:      domain.FuelGroup(m.FuelGroup),
		HasGoods:       m.HasGoods,
		GoodsAmount:    m.GoodsAmount,
		AddressShort:   m.AddressShort,
		ImagePath:      m.ImagePath,
		PDFPath:        m.PDFPath,
		QRRaw:          m.QRRaw,
		DataSource:     domain.DataSource(m.DataSource),
		Status:         domain.ReceiptStatus(m.Status),
		Raw:            []byte(m.Raw),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func receiptItemToModel(it domain.ReceiptItem) ReceiptItemModel {
	return ReceiptItemModel{
		ID:        it.ID,
		ReceiptID: it.ReceiptID,
		Name:      it.Name,
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice,
		Amount:    it.Amount,
		IsFuel:    it.IsFuel,
		CreatedAt: it.CreatedAt,
	}
}

func receiptItemFromModel(m ReceiptItemModel) domain.ReceiptItem {
	return domain.ReceiptItem{
		ID:        m.ID,
		ReceiptID: m.ReceiptID,
		Name:      m.Name,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		Amount:    m.Amount,
		IsFuel:    m.IsFuel,
		CreatedAt: m.CreatedAt,
	}
}

func draftToModel(d domain.RepairDraft) (RepairDraftModel, error) {
	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return RepairDraftModel{}, err
	}
	return RepairDraftModel{
		ID:          d.ID,
		ChatID:      d.ChatID,
		Step:        d.Step,
		Payload:     datatypes.JSON(payload),
		CreatedFrom: string(d.CreatedFrom),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func draftFromModel(m RepairDraftModel) (domain.RepairDraft, error) {
	payload := domain.NewDraftPayload()
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return domain.RepairDraft{}, err
		}
	}
	return domain.RepairDraft{
		ID:          m.ID,
		ChatID:      m.ChatID,
		Step:        m.Step,
		Payload:     payload,
		CreatedFrom: domain.CreatedFrom(m.CreatedFrom),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

func repairEventToModel(e domain.RepairEvent) RepairEventModel {
	m := RepairEventModel{
		ID:             e.ID,
		VehicleID:      e.VehicleID,
		EventType:      string(e.EventType),
		Status:         string(e.Status),
		StartedAt:      e.StartedAt,
		FinishedAt:     e.FinishedAt,
		OdometerKm:     e.OdometerKm,
		CategoryCode:   e.CategoryCode,
		SymptomsText:   e.SymptomsText,
		ServiceName:    e.ServiceName,
		PaymentStatus:  string(e.PaymentStatus),
		TotalCostWork:  e.TotalCostWork,
		TotalCostParts: e.TotalCostParts,
		TotalCost:      e.TotalCost,
		CreatedFrom:    string(e.CreatedFrom),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	for _, w := range e.Works {
		m.Works = append(m.Works, repairWorkToModel(w))
	}
	for _, p := range e.Parts {
		m.Parts = append(m.Parts, repairPartToModel(p))
	}
	for _, a := range e.Attachments {
		m.Attachments = append(m.Attachments, attachmentToModel(a))
	}
	return m
}

func repairEventFromModel(m RepairEventModel) domain.RepairEvent {
	e := domain.RepairEvent{
		ID:             m.ID,
		VehicleID:      m.VehicleID,
		EventType:      domain.RepairEventType(m.EventType),
		Status:         domain.RepairEventStatus(m.Status),
		StartedAt:      m.StartedAt,
		FinishedAt:     m.FinishedAt,
		OdometerKm:     m.OdometerKm,
		CategoryCode:   m.CategoryCode,
		SymptomsText:   m.SymptomsText,
		ServiceName:    m.ServiceName,
		PaymentStatus:  domain.PaymentStatus(m.PaymentStatus),
		TotalCostWork:  m.TotalCostWork,
		TotalCostParts: m.TotalCostParts,
		TotalCost:      m.TotalCost,
		CreatedFrom:    domain.CreatedFrom(m.CreatedFrom),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, w := range m.Works {
		e.Works = append(e.Works, repairWorkFromModel(w))
	}
	for _, p := range m.Parts {
		e.Parts = append(e.Parts, repairPartFromModel(p))
	}
	for _, a := range m.Attachments {
		e.Attachments = append(e.Attachments, attachmentFromModel(a))
	}
	return e
}

func repairWorkToModel(w domain.RepairWork) RepairWorkModel {
	return RepairWorkModel{
		ID:            w.ID,
		RepairEventID: w.RepairEventID,
		WorkName:      w.WorkName,
		Cost:          w.Cost,
		Comment:       w.Comment,
		CreatedAt:     w.CreatedAt,
	}
}

func repairWorkFromModel(m RepairWorkModel) domain.RepairWork {
	return domain.RepairWork{
		ID:            m.ID,
		RepairEventID: m.RepairEventID,
		WorkName:      m.WorkName,
		Cost:          m.Cost,
		Comment:       m.Comment,
		CreatedAt:     m.CreatedAt,
	}
}

func repairPartToModel(p domain.RepairPart) RepairPartModel {
	return RepairPartModel{
		ID:            p.ID,
		RepairEventID: p.RepairEventID,
		PartName:      p.PartName,
		Qty:           p.Qty,
		UnitPrice:     p.UnitPrice,
		TotalPrice:    p.TotalPrice,
		Comment:       p.Comment,
		CreatedAt:     p.CreatedAt,
	}
}

func repairPartFromModel(m RepairPartModel) domain.RepairPart {
	return domain.RepairPart{
		ID:            m.ID,
		RepairEventID: m.RepairEventID,
		PartName:      m.PartName,
		Qty:           m.Qty,
		UnitPrice:     m.UnitPrice,
		TotalPrice:    m.TotalPrice,
		Comment:       m.Comment,
		CreatedAt:     m.CreatedAt,
	}
}

func attachmentToModel(a domain.RepairAttachment) RepairAttachmentModel {
	return RepairAttachmentModel{
		ID:            a.ID,
		RepairEventID: a.RepairEventID,
		FileType:      string(a.FileType),
		FileName:      a.FileName,
		MimeType:      a.MimeType,
		Size:          a.Size,
		StorageKey:    a.StorageKey,
		Source:        string(a.Source),
		CreatedAt:     a.CreatedAt,
	}
}

func attachmentFromModel(m RepairAttachmentModel) domain.RepairAttachment {
	return domain.RepairAttachment{
		ID:            m.ID,
		RepairEventID: m.RepairEventID,
		FileType:      domain.AttachmentType(m.FileType),
		FileName:      m.FileName,
		MimeType:      m.MimeType,
		Size:          m.Size,
		StorageKey:    m.StorageKey,
		Source:        domain.CreatedFrom(m.Source),
		CreatedAt:     m.CreatedAt,
	}
}

func maintenanceToModel(item domain.MaintenanceItem) MaintenanceItemModel {
	return MaintenanceItemModel{
		ID:                 item.ID,
		VehicleID:          item.VehicleID,
		Name:               item.Name,
		IntervalKm:         item.IntervalKm,
		IntervalDays:       item.IntervalDays,
		LastDoneAt:         item.LastDoneAt,
		LastDoneOdometerKm: item.LastDoneOdometerKm,
		NotifyBeforeKm:     item.NotifyBeforeKm,
		NotifyBeforeDays:   item.NotifyBeforeDays,
		LastNotifiedAt:     item.LastNotifiedAt,
		IsActive:           item.IsActive,
		CreatedAt:          item.CreatedAt,
		UpdatedAt:          item.UpdatedAt,
	}
}

func maintenanceFromModel(m MaintenanceItemModel) domain.MaintenanceItem {
	return domain.MaintenanceItem{
		ID:                 m.ID,
		VehicleID:          m.VehicleID,
		Name:               m.Name,
		IntervalKm:         m.IntervalKm,
		IntervalDays:       m.IntervalDays,
		LastDoneAt:         m.LastDoneAt,
		LastDoneOdometerKm: m.LastDoneOdometerKm,
		NotifyBeforeKm:     m.NotifyBeforeKm,
		NotifyBeforeDays:   m.NotifyBeforeDays,
		LastNotifiedAt:     m.LastNotifiedAt,
		IsActive:           m.IsActive,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func accidentToModel(a domain.AccidentEvent) AccidentEventModel {
	return AccidentEventModel{
		ID:            a.ID,
		VehicleID:     a.VehicleID,
		OccurredAt:    a.OccurredAt,
		OdometerKm:    a.OdometerKm,
		Description:   a.Description,
		Damage:        a.Damage,
		Repaired:      a.Repaired,
		RepairEventID: a.RepairEventID,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func accidentFromModel(m AccidentEventModel) domain.AccidentEvent {
	return domain.AccidentEvent{
		ID:            m.ID,
		VehicleID:     m.VehicleID,
		OccurredAt:    m.OccurredAt,
		OdometerKm:    m.OdometerKm,
		Description:   m.Description,
		Damage:        m.Damage,
		Repaired:      m.Repaired,
		RepairEventID: m.RepairEventID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func partsSpecToModel(s domain.VehiclePartsSpec) (VehiclePartsSpecModel, error) {
	preferred, err := json.Marshal(s.PreferredBrands)
	if err != nil {
		return VehiclePartsSpecModel{}, err
	}
	avoid, err := json.Marshal(s.AvoidBrands)
	if err != nil {
		return VehiclePartsSpecModel{}, err
	}
	return VehiclePartsSpecModel{
		ID:              s.ID,
		VehicleID:       s.VehicleID,
		GroupCode:       s.GroupCode,
		RecommendedText: s.RecommendedText,
		PreferredBrands: datatypes.JSON(preferred),
		AvoidBrands:     datatypes.JSON(avoid),
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}, nil
}

func partsSpecFromModel(m VehiclePartsSpecModel) domain.VehiclePartsSpec {
	spec := domain.VehiclePartsSpec{
		ID:              m.ID,
		VehicleID:       m.VehicleID,
		GroupCode:       m.GroupCode,
		RecommendedText: m.RecommendedText,
		PreferredBrands: []string{},
		AvoidBrands:     []string{},
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if len(m.PreferredBrands) > 0 {
		_ = json.Unmarshal(m.PreferredBrands, &spec.PreferredBrands)
	}
	if len(m.AvoidBrands) > 0 {
		_ = json.Unmarshal(m.AvoidBrands, &spec.AvoidBrands)
	}
	return spec
}
